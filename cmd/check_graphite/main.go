// Command check_graphite is a monitoring plugin that fetches series from a
// Graphite render endpoint, compares them against thresholds and reports
// the worst status through its output and exit code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kylerisse/check-graphite/pkg/check"
	"github.com/kylerisse/check-graphite/pkg/config"
	"github.com/kylerisse/check-graphite/pkg/plugin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds the command line settings that override the configuration.
type flags struct {
	configPath  string
	graphiteURL string
	timeout     time.Duration
	skipVerify  bool
	dnsServer   string
	logLevel    string
	verbose     bool
}

// run executes the plugin with args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		f    flags
		opts plugin.Options
		code = check.Unknown.ExitCode()
	)

	cmd := &cobra.Command{
		Use:   "check_graphite",
		Short: "Check Graphite series against thresholds",
		Long: "check_graphite fetches one or more Graphite targets over a time window and\n" +
			"reports OK, WARNING, CRITICAL or UNKNOWN depending on how many datapoints\n" +
			"fall beyond the configured thresholds.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &f, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := plugin.NewLogger(stderr, cfg.Log)
			if err != nil {
				return err
			}
			if f.verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			runner, err := plugin.NewRunner(cfg, logger)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx, opts)
			if err != nil && check.IsConfigError(err) {
				return err
			}
			code = plugin.Write(stdout, report, err, opts.Perfdata)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false

	fs.StringVarP(&f.graphiteURL, "graphite-url", "U", "", "Graphite base URL (default from config or GRAPHITE_URL)")
	fs.StringArrayVarP(&opts.Targets, "target", "t", nil, "target expression; repeat or separate with commas")
	fs.StringVar(&opts.From, "from", "", "start of the time window, e.g. -5min")
	fs.StringVar(&opts.Until, "until", "", "end of the time window (default now)")

	fs.StringVar(&opts.Threshold, "threshold", "", "single threshold; a trailing % is ignored")
	fs.IntVarP(&opts.MaxWarn, "max-warn", "W", 0, "datapoints allowed beyond the threshold before WARNING")
	fs.IntVarP(&opts.MaxCrit, "max-crit", "C", 0, "datapoints allowed beyond the threshold before CRITICAL")
	fs.BoolVar(&opts.AllowancePercent, "allowance-percent", false, "treat --max-warn and --max-crit as percentages of datapoints")
	fs.StringVar(&opts.Warning, "warning", "", "warning threshold (dual threshold mode)")
	fs.StringVar(&opts.Critical, "critical", "", "critical threshold (dual threshold mode)")
	fs.IntVar(&opts.MinCount, "min-count", 0, "datapoints beyond a dual threshold needed to trigger it")
	fs.BoolVar(&opts.Over, "over", false, "alert when values are above the threshold (default)")
	fs.BoolVar(&opts.Under, "under", false, "alert when values are below the threshold")
	fs.StringVar(&opts.Direction, "direction", "", "over or under; alternative to --over and --under")
	fs.IntVar(&opts.Percentile, "percentile", 0, "evaluate nPercentile(target, N) instead of the raw series")
	fs.Float64Var(&opts.Relative, "relative", 0, "threshold as a percentage of the series' own quantile")
	fs.Float64Var(&opts.Quantile, "quantile", 0, "quantile used by --relative (default 0.95)")
	fs.BoolVar(&opts.Confidence, "confidence", false, "compare the series against its Holt-Winters confidence band")
	fs.StringVar(&opts.Compare, "compare", "", "series the value must also exceed in confidence mode")
	fs.IntVar(&opts.Window, "window", 0, "trailing datapoints compared in confidence mode")

	fs.BoolVar(&opts.EmptyOK, "empty-ok", false, "report OK instead of CRITICAL when a target has no data")
	fs.BoolVar(&opts.Perfdata, "perfdata", false, "append performance data to the output")

	fs.DurationVar(&f.timeout, "timeout", 0, "request timeout (default from config or 10s)")
	fs.BoolVar(&f.skipVerify, "skip-verify", false, "do not verify the backend TLS certificate")
	fs.StringVar(&f.dnsServer, "dns-server", "", "resolve the backend through this DNS server")
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", "", "diagnostics level on stderr (default warn)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug diagnostics on stderr")

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdout, "%s: %v\n\n%s", check.Unknown, err, cmd.UsageString())
		return check.Unknown.ExitCode()
	}
	return code
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("graphite-url") {
		cfg.GraphiteURL = f.graphiteURL
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("skip-verify") {
		cfg.SkipVerify = f.skipVerify
	}
	if changed("dns-server") {
		cfg.DNS.Server = f.dnsServer
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
}
