package checkauth

import (
	"net/http"
	"time"
)

// Option configures a Checker before its first cycle.
type Option func(*Checker)

// WithHTTPClient sets the client used for check requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout bounds each check request. The configured client is left
// untouched; the checker works on a copy.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMethod sets the HTTP method used for the check.
func WithMethod(method string) Option {
	return func(c *Checker) {
		if method != "" {
			c.request.Method = method
		}
	}
}

// WithHeader adds a header to every check request.
func WithHeader(key, val string) Option {
	return func(c *Checker) {
		if key == "" {
			return
		}
		if c.request.Headers == nil {
			c.request.Headers = map[string]string{}
		}
		c.request.Headers[key] = val
	}
}

// WithBody sets the payload sent with every check request.
func WithBody(body []byte) Option {
	return func(c *Checker) {
		c.request.Body = body
	}
}

// WithRequest replaces the whole request, keeping the URL passed to New when
// the replacement carries none.
func WithRequest(req Request) Option {
	return func(c *Checker) {
		if req.URL == "" {
			req.URL = c.request.URL
		}
		c.request = req
	}
}

// WithInterval re-runs the check on a fixed cadence once Start ran. Ticks
// that land while a cycle is in flight are skipped.
func WithInterval(interval time.Duration) Option {
	return func(c *Checker) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithHooks installs request-scoped observability callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *Checker) {
		c.hooks = hooks
	}
}

// WithTokenVerifier verifies the endpoint response as a signed token instead
// of decoding it as plain user info.
func WithTokenVerifier(verifier TokenVerifier) Option {
	return func(c *Checker) {
		c.verifier = verifier
	}
}

// WithLogger sets the logger used by the checker.
func WithLogger(logger Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoggerProvider resolves the checker logger from a provider.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(c *Checker) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}
