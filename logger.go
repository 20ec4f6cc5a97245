package checkauth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

// Logger is the leveled, structured logger used across the package.
type Logger = glog.Logger

// LoggerProvider resolves named loggers so applications can hand out scoped
// loggers from a shared root.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger resolves a scoped logger from the provider, falling back to
// the given logger when the provider has nothing for that name. The returned
// provider always resolves to a usable logger.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if fallback == nil {
		fallback = defaultLogger()
	}
	if provider == nil {
		return glog.ProviderFromLogger(fallback), fallback
	}
	if logger := provider.GetLogger(name); logger != nil {
		return provider, logger
	}
	return glog.ProviderFromLogger(fallback), fallback
}

func defaultLogger() Logger {
	return glog.NewLogger(
		glog.WithName("checkauth"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}
