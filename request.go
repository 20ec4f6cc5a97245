package checkauth

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/hashid/pkg/hashid"
)

// Request describes where and how the auth check is performed.
type Request struct {
	// URL is the session endpoint the check calls.
	URL string

	// Method defaults to GET when empty.
	Method string

	// Headers are set on every check request.
	Headers map[string]string

	// Body is an optional payload sent with the check request.
	Body []byte
}

// Validate checks the request is usable before any cycle runs.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL),
		validation.Field(&r.Method, validation.In(
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		)),
	)
}

// Fingerprint returns a deterministic identity for the request so callers can
// tell whether two configurations target the same check. Requests that differ
// only in header order share a fingerprint.
func (r Request) Fingerprint() (string, error) {
	id, err := hashid.NewUUID(r.canonical())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r Request) canonical() string {
	var b strings.Builder
	b.WriteString(r.method())
	b.WriteByte('\n')
	b.WriteString(r.URL)
	b.WriteByte('\n')

	keys := make([]string, 0, len(r.Headers))
	for key := range r.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(r.Headers[key])
		b.WriteByte('\n')
	}

	b.Write(r.Body)
	return b.String()
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r Request) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method(), r.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	for key, val := range r.Headers {
		req.Header.Set(key, val)
	}

	return req, nil
}
