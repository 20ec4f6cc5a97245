package checkauth

import (
	"context"
	"net/http"
	"time"
)

// Hooks carries optional request-scoped callbacks for observability. Hooks
// fire for every cycle, including ones that end up superseded, so timings and
// failures can be recorded per request rather than per settled state.
type Hooks struct {
	// OnRequest fires right before the check request is sent.
	OnRequest func(ctx context.Context, req *http.Request)

	// OnResponse fires after a response arrives, before classification.
	OnResponse func(ctx context.Context, resp *http.Response, elapsed time.Duration)

	// OnError fires whenever a cycle fails, with the normalized error.
	OnError func(ctx context.Context, err error)
}

func (h Hooks) requestSent(ctx context.Context, req *http.Request) {
	if h.OnRequest != nil {
		h.OnRequest(ctx, req)
	}
}

func (h Hooks) responseReceived(ctx context.Context, resp *http.Response, elapsed time.Duration) {
	if h.OnResponse != nil {
		h.OnResponse(ctx, resp, elapsed)
	}
}

func (h Hooks) failed(ctx context.Context, err error) {
	if h.OnError != nil {
		h.OnError(ctx, err)
	}
}
