package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appNameHook tags every entry with the service name: as a message prefix
// for text output, as a "service" field for JSON output.
type appNameHook struct {
	appName string
	asField bool
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	if h.asField {
		entry.Data["service"] = h.appName
		return nil
	}
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// InitLogger configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("text" or "json", default text).
func InitLogger(appName string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	jsonOutput := strings.EqualFold(os.Getenv("LOG_FORMAT"), "json")
	if jsonOutput {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Logger.ReplaceHooks(make(logrus.LevelHooks))
	Logger.AddHook(&appNameHook{appName: appName, asField: jsonOutput})
}

func parseLevel(raw string) logrus.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", raw)
		return logrus.InfoLevel
	}
	return level
}
