package logger

type Fields map[string]any

type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}

type nopLogger struct{}

// NewNopLogger returns a Logger that drops everything, Fatal included.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Trace(...any) {}

func (nopLogger) Debug(...any) {}

func (nopLogger) Info(...any) {}

func (nopLogger) Warn(...any) {}

func (nopLogger) Error(...any) {}

func (nopLogger) Fatal(...any) {}

func (n nopLogger) WithFields(Fields) Logger {
	return n
}

func (n nopLogger) WithField(string, any) Logger {
	return n
}

func (n nopLogger) WithError(error) Logger {
	return n
}
