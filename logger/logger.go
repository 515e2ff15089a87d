package logger

import (
	"strings"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/sirupsen/logrus"
)

// Setup will configure logrus logger
// the badge generator and the server share the same settings, only the component field differs
func Setup(cfg config.Config, component string) *logrus.Entry {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.Logs.OutputLogsAsJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	logrus.SetLevel(StringToLogrusLogType(cfg.Logs.Level))

	return logrus.WithField("component", component)
}

// StringToLogrusLogType will convert string to the right logrus level
// unknown values fall back to error level
func StringToLogrusLogType(logLevel string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.ErrorLevel
	}
}
