package pkg

// Logger is the structured logger used across the collector. Key/value
// pairs follow the zap sugared convention: "key", value, "key", value.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	WithPackage(name string) Logger
	Sync() error
}
