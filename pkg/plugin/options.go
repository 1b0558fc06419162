package plugin

import (
	"strings"

	"github.com/kylerisse/check-graphite/pkg/check"
	"github.com/kylerisse/check-graphite/pkg/graphite"
)

// Options are the check settings given on the command line.
type Options struct {
	Targets []string
	From    string
	Until   string

	// Over and Under select the direction; at most one may be set.
	// Direction names it instead ("over" or "under").
	Over      bool
	Under     bool
	Direction string

	// Single threshold mode.
	Threshold        string
	MaxWarn          int
	MaxCrit          int
	AllowancePercent bool

	// Dual threshold mode.
	Warning  string
	Critical string
	MinCount int

	// Percentile wraps every target in nPercentile(target, Percentile).
	Percentile int

	// Relative derives the threshold from the series' own quantile.
	Relative float64
	Quantile float64

	// Confidence band mode.
	Confidence bool
	Compare    string
	Window     int

	EmptyOK  bool
	Perfdata bool
}

// Plan is the validated form of Options: what to fetch and how to judge it.
type Plan struct {
	Query     graphite.Query
	Evaluator check.Evaluator

	// LegacyPercent is set when the threshold carried a '%' suffix.
	LegacyPercent bool
}

// Build validates opts and turns them into a Plan. Every error is a
// *check.ConfigError.
func Build(opts Options) (Plan, error) {
	var plan Plan

	targets := splitTargets(opts.Targets)
	if len(targets) == 0 {
		return plan, check.Configf("missing option: --target")
	}
	if strings.TrimSpace(opts.From) == "" {
		return plan, check.Configf("missing option: --from")
	}
	if opts.Over && opts.Under {
		return plan, check.Configf("--over and --under are mutually exclusive")
	}

	direction := check.Over
	if opts.Under {
		direction = check.Under
	}
	if opts.Direction != "" {
		if opts.Over || opts.Under {
			return plan, check.Configf("--direction cannot be combined with --over or --under")
		}
		d, err := check.ParseDirection(opts.Direction)
		if err != nil {
			return plan, err
		}
		direction = d
	}

	dual := opts.Warning != "" || opts.Critical != ""
	modes := 0
	for _, set := range []bool{opts.Threshold != "", dual, opts.Relative != 0, opts.Confidence} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return plan, check.Configf("--threshold, --warning/--critical, --relative and --confidence are mutually exclusive")
	}

	if opts.MinCount != 0 && !dual {
		return plan, check.Configf("--min-count requires --warning and --critical")
	}
	if opts.AllowancePercent && opts.Threshold == "" {
		return plan, check.Configf("--allowance-percent requires --threshold")
	}
	if (dual || opts.Confidence) && (opts.MaxWarn != 0 || opts.MaxCrit != 0) {
		return plan, check.Configf("--max-warn and --max-crit require --threshold or --relative")
	}

	var mode check.Mode
	switch {
	case opts.Confidence:
		if len(targets) != 1 {
			return plan, check.Configf("--confidence takes exactly one target, got %d", len(targets))
		}
		if opts.Percentile != 0 {
			return plan, check.Configf("--percentile cannot be combined with --confidence")
		}
		mode = check.Paired{Target: targets[0], Compare: opts.Compare, Window: opts.Window}
		targets = graphite.ConfidenceTargets(targets[0], opts.Compare)

	case dual:
		if opts.Warning == "" || opts.Critical == "" {
			return plan, check.Configf("--warning and --critical must be given together")
		}
		warn, _, err := check.ParseThreshold(opts.Warning)
		if err != nil {
			return plan, err
		}
		crit, _, err := check.ParseThreshold(opts.Critical)
		if err != nil {
			return plan, err
		}
		mode = check.Dual{Warning: warn, Critical: crit, MinCount: opts.MinCount}

	case opts.Relative != 0:
		q := opts.Quantile
		if q == 0 {
			q = check.DefaultQuantile
		}
		mode = check.Relative{Percent: opts.Relative, Quantile: q, MaxWarn: opts.MaxWarn, MaxCrit: opts.MaxCrit}

	case opts.Threshold != "":
		threshold, legacy, err := check.ParseThreshold(opts.Threshold)
		if err != nil {
			return plan, err
		}
		plan.LegacyPercent = legacy
		mode = check.Fixed{
			Threshold: threshold,
			MaxWarn:   opts.MaxWarn,
			MaxCrit:   opts.MaxCrit,
			Percent:   opts.AllowancePercent,
		}

	default:
		return plan, check.Configf("missing option: --threshold")
	}

	if !opts.Confidence && (opts.Compare != "" || opts.Window != 0) {
		return plan, check.Configf("--compare and --window require --confidence")
	}

	requested := targets
	if opts.Percentile != 0 {
		requested = make([]string, len(targets))
		for i, t := range targets {
			wrapped, err := graphite.WrapPercentile(t, opts.Percentile)
			if err != nil {
				return plan, &check.ConfigError{Msg: "invalid --percentile", Err: err}
			}
			requested[i] = wrapped
		}
	}

	plan.Query = graphite.Query{
		Targets: requested,
		From:    strings.TrimSpace(opts.From),
		Until:   strings.TrimSpace(opts.Until),
	}
	plan.Evaluator = check.Evaluator{
		Direction: direction,
		Mode:      mode,
		EmptyOK:   opts.EmptyOK,
		Targets:   requested,
	}

	if err := plan.Evaluator.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// splitTargets flattens comma-separated target lists. Commas inside
// parentheses belong to function arguments and do not split.
func splitTargets(raw []string) []string {
	var out []string
	for _, item := range raw {
		depth := 0
		start := 0
		for i, r := range item {
			switch r {
			case '(', '{':
				depth++
			case ')', '}':
				depth--
			case ',':
				if depth == 0 {
					out = appendTarget(out, item[start:i])
					start = i + 1
				}
			}
		}
		out = appendTarget(out, item[start:])
	}
	return out
}

func appendTarget(out []string, t string) []string {
	if t = strings.TrimSpace(t); t != "" {
		out = append(out, t)
	}
	return out
}
