package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Nop returns a Logger that discards everything. Engine constructors fall
// back to it when the caller passes a nil logger, so library use stays quiet
// without nil checks at every call site.
func Nop() Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLogrusAdapterFromLogger(logger)
}

// OrNop returns log unchanged when non-nil, otherwise a discarding Logger.
func OrNop(log Logger) Logger {
	if log == nil {
		return Nop()
	}
	return log
}
