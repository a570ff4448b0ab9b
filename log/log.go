package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetLogging sets log using in this application,
// unknown level falls back to info
func SetLogging(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	logrus.SetLevel(lv)
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
