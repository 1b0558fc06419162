// Package plugin runs one check end to end: it builds the Graphite client
// from the configuration, performs the single render request, evaluates
// the series and writes the plugin output.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/check-graphite/pkg/check"
	"github.com/kylerisse/check-graphite/pkg/config"
	"github.com/kylerisse/check-graphite/pkg/graphite"
	"github.com/kylerisse/check-graphite/pkg/resolve"
)

// Runner executes checks against one backend.
type Runner struct {
	logger *logrus.Logger
	client *graphite.Client
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*runnerSettings)

type runnerSettings struct {
	httpClient *http.Client
}

// WithHTTPClient makes the Runner use hc for the render request instead of
// a client built from the configuration.
func WithHTTPClient(hc *http.Client) RunnerOption {
	return func(s *runnerSettings) {
		s.httpClient = hc
	}
}

// NewRunner builds the Graphite client described by cfg.
func NewRunner(cfg *config.Config, logger *logrus.Logger, opts ...RunnerOption) (*Runner, error) {
	var settings runnerSettings
	for _, opt := range opts {
		opt(&settings)
	}

	clientOpts := []graphite.Option{
		graphite.WithTimeout(cfg.Timeout),
		graphite.WithSkipVerify(cfg.SkipVerify),
		graphite.WithUserAgent(cfg.UserAgent),
		graphite.WithLogger(logger),
	}

	if settings.httpClient != nil {
		clientOpts = append(clientOpts, graphite.WithHTTPClient(settings.httpClient))
	} else if cfg.DNS.Server != "" {
		res, err := resolve.New(cfg.DNS.Server,
			resolve.WithTimeout(cfg.DNS.Timeout),
			resolve.WithLogger(logger),
		)
		if err != nil {
			return nil, &check.ConfigError{Msg: "invalid DNS server", Err: err}
		}
		logger.Debugf("Resolving backend through %s", res.Server())
		clientOpts = append(clientOpts, graphite.WithDialer(res.DialContext))
	}

	client, err := graphite.New(cfg.GraphiteURL, clientOpts...)
	if err != nil {
		return nil, &check.ConfigError{Msg: "invalid backend settings", Err: err}
	}

	return &Runner{
		logger: logger,
		client: client,
	}, nil
}

// Run validates opts, fetches the series and evaluates them. The returned
// error is a *check.ConfigError or a *graphite.FetchError; no partial
// report is returned with it.
func (r *Runner) Run(ctx context.Context, opts Options) (check.Report, error) {
	plan, err := Build(opts)
	if err != nil {
		return check.Report{}, err
	}

	if plan.LegacyPercent {
		r.logger.Warnf("Threshold %q: the percent sign is ignored and the value is used as a plain bound; "+
			"use --allowance-percent to compare the share of datapoints out of bounds", opts.Threshold)
	}

	r.logger.WithFields(logrus.Fields{
		"mode":      plan.Evaluator.Mode.Name(),
		"direction": plan.Evaluator.Direction.String(),
		"targets":   plan.Query.Targets,
	}).Debug("Running check")

	series, err := r.client.Fetch(ctx, plan.Query)
	if err != nil {
		return check.Report{}, err
	}

	report := plan.Evaluator.Evaluate(series)
	r.logger.Debugf("Evaluated %d result(s), aggregate status %s", len(report.Results), report.Status())
	return report, nil
}

// Write prints the outcome of a run to w and returns the exit code.
// A fetch failure prints a single CRITICAL line; any other error prints a
// single UNKNOWN line.
func Write(w io.Writer, report check.Report, err error, perfdata bool) int {
	if err != nil {
		status := check.StatusForError(err)
		var fe *graphite.FetchError
		if errors.As(err, &fe) {
			fmt.Fprintf(w, "%s: no output from backend: %v\n", status, err)
		} else {
			fmt.Fprintf(w, "%s: %v\n", status, err)
		}
		return status.ExitCode()
	}

	for _, line := range report.Lines(perfdata) {
		fmt.Fprintln(w, line)
	}
	return report.ExitCode()
}
