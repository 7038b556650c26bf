package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/infra/config"
)

// New builds a logrus logger from application configuration. Production and
// staging environments log JSON; development logs human-readable text. The
// logger is returned for injection rather than installed as a global.
func New(cfg *config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return log
}
