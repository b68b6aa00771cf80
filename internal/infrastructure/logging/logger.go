package logging

// Logger is the structured logging surface used across the service. Two
// implementations exist: zap (default) and zerolog. Both accept
// key/value pairs the way zap's SugaredLogger does.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Fatalw(msg string, keysAndValues ...any)

	Sync() error
}

type Config struct {
	Logger   string // "zap" or "zerolog"
	Level    string // debug, info, warn, error
	Encoding string // json or console (zap only)
	FilePath string // when set, logs rotate via lumberjack
}

func NewLogger(cfg Config) Logger {
	switch cfg.Logger {
	case "", "zap":
		return newZapLogger(cfg)
	case "zerolog":
		return newZeroLogger(cfg)
	}

	panic("logger not supported: supported loggers: [zap, zerolog]")
}
