package plugin

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/check-graphite/pkg/check"
	"github.com/kylerisse/check-graphite/pkg/config"
)

// NewLogger builds the diagnostics logger. Stdout belongs to the plugin
// output, so w is normally stderr.
func NewLogger(w io.Writer, cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, &check.ConfigError{Msg: "invalid log level", Err: err}
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return l, nil
}
