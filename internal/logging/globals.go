package logging

import (
	"github.com/sirupsen/logrus"
)

// global is the shared logrus instance handed out by GetLogger. Packages that
// only need the plain logrus API use it directly; packages that want the
// Logger abstraction wrap it with NewLogrusAdapterFromLogger.
var global = logrus.New()

// GetLogger returns the shared logrus logger instance.
func GetLogger() *logrus.Logger {
	return global
}

// SetAllLogLevels sets the level on both the shared instance and the logrus
// standard logger so every logger created afterwards inherits it.
func SetAllLogLevels(level logrus.Level) {
	global.SetLevel(level)
	logrus.SetLevel(level)
}
