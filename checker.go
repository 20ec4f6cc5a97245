package checkauth

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// Checker performs the auth check against a session endpoint and holds the
// resulting tri-state. Every trigger starts a new cycle; the last cycle
// started wins and stale completions are discarded. All methods are safe for
// concurrent use, including from inside subscriber callbacks.
type Checker struct {
	client   *http.Client
	timeout  time.Duration
	interval time.Duration
	hooks    Hooks
	verifier TokenVerifier

	loggerProvider LoggerProvider
	logger         Logger

	mu          sync.Mutex
	request     Request
	fingerprint string
	state       State
	gen         uint64
	cancel      context.CancelFunc
	baseCtx     context.Context
	started     bool
	closed      bool
	done        chan struct{}
	queue       []State
	draining    bool
	subs        map[uuid.UUID]Subscriber
}

// New creates a checker for the given session endpoint. No I/O happens until
// Start or Refresh runs.
func New(authURL string, opts ...Option) (*Checker, error) {
	c := &Checker{
		request: Request{URL: authURL},
		baseCtx: context.Background(),
		done:    make(chan struct{}),
		subs:    map[uuid.UUID]Subscriber{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.request.Validate(); err != nil {
		return nil, invalidRequestError(err)
	}

	fingerprint, err := c.request.Fingerprint()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to fingerprint auth check request")
	}
	c.fingerprint = fingerprint

	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.timeout > 0 {
		client := *c.client
		client.Timeout = c.timeout
		c.client = &client
	}

	c.loggerProvider, c.logger = ResolveLogger("checkauth.checker", c.loggerProvider, c.logger)

	return c, nil
}

// Start begins the initial check and, when configured, the interval loop.
// It is idempotent; calls after the first are no-ops.
func (c *Checker) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.closed || c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.baseCtx = ctx
	interval := c.interval
	done := c.done
	c.mu.Unlock()

	if interval > 0 {
		go c.loop(ctx, interval, done)
	}
	c.trigger(true)
}

// Refresh re-runs the auth check. Safe to call at any time, including from
// inside a subscriber; a cycle already in flight is superseded.
func (c *Checker) Refresh() {
	c.trigger(true)
}

// Snapshot returns the current tri-state.
func (c *Checker) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every state transition. Cancel detaches it.
// New subscribers are not caught up with the current state; see
// Distributor.Subscribe for that behavior.
func (c *Checker) Subscribe(fn Subscriber) Subscription {
	if fn == nil {
		return noopSubscription{}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return noopSubscription{}
	}
	id := uuid.New()
	c.subs[id] = fn
	c.mu.Unlock()

	return &subscription{cancel: func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}}
}

// SetRequest swaps the check target. A new cycle runs only when the request
// identity actually changed and the checker already started.
func (c *Checker) SetRequest(req Request) error {
	if err := req.Validate(); err != nil {
		return invalidRequestError(err)
	}

	fingerprint, err := req.Fingerprint()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to fingerprint auth check request")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCheckerClosed
	}
	if fingerprint == c.fingerprint {
		c.mu.Unlock()
		return nil
	}
	c.request = req
	c.fingerprint = fingerprint
	started := c.started
	c.mu.Unlock()

	c.logger.Debug("auth check request changed", "url", req.URL)

	if started {
		c.trigger(true)
	}
	return nil
}

// Close tears the checker down: the in-flight cycle is canceled, subscribers
// are detached, and the interval loop stops. Completions that arrive after
// Close are discarded. Idempotent.
func (c *Checker) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state.Loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.subs = map[uuid.UUID]Subscriber{}
	c.queue = nil
	close(c.done)
	c.mu.Unlock()

	c.logger.Debug("checker closed")
	return nil
}

func (c *Checker) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			c.trigger(false)
		}
	}
}

// trigger starts a new check cycle. When force is false the trigger is
// skipped if a cycle is already in flight.
func (c *Checker) trigger(force bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !force && c.state.Loading {
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel

	c.gen++
	gen := c.gen
	req := c.request
	c.state.Loading = true
	c.queue = append(c.queue, c.state)
	c.mu.Unlock()

	go c.run(ctx, gen, req)
	c.drain()
}

func (c *Checker) run(ctx context.Context, gen uint64, req Request) {
	info, err := c.check(ctx, req)
	c.complete(gen, info, err)
}

func (c *Checker) complete(gen uint64, info *UserInfo, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = State{UserInfo: info, Err: err}
	c.queue = append(c.queue, c.state)
	c.mu.Unlock()

	if err != nil {
		if richErr, ok := CheckFailure(err); ok {
			c.logger.Warn("auth check failed",
				"error", richErr.Message,
				"text_code", richErr.TextCode,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			c.logger.Warn("auth check failed", "error", err)
		}
	}

	c.drain()
}

// drain delivers queued state transitions in order. Only one goroutine
// drains at a time; callbacks run outside the checker lock so they can
// re-enter Refresh, Subscribe, or Cancel.
func (c *Checker) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true

	for len(c.queue) > 0 {
		state := c.queue[0]
		c.queue = c.queue[1:]
		fns := make([]Subscriber, 0, len(c.subs))
		for _, fn := range c.subs {
			fns = append(fns, fn)
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(state, c.Refresh)
		}

		c.mu.Lock()
		if c.closed {
			c.queue = nil
		}
	}

	c.draining = false
	c.mu.Unlock()
}

func (c *Checker) check(ctx context.Context, req Request) (*UserInfo, error) {
	httpReq, err := req.build(ctx)
	if err != nil {
		return nil, c.fail(ctx, transportError(req.URL, err))
	}

	c.hooks.requestSent(ctx, httpReq)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.fail(ctx, transportError(req.URL, err))
	}
	defer resp.Body.Close()

	c.hooks.responseReceived(ctx, resp, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, transportError(req.URL, err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.fail(ctx, statusError(req.URL, resp.StatusCode, body))
	}

	if c.verifier != nil {
		info, err := c.verifyResponse(ctx, req.URL, body)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
		return info, nil
	}

	info, err := decodeUserInfo(body)
	if err != nil {
		if _, ok := CheckFailure(err); !ok {
			err = parseError(req.URL, err)
		}
		return nil, c.fail(ctx, err)
	}

	return info, nil
}

func (c *Checker) verifyResponse(ctx context.Context, url string, body []byte) (*UserInfo, error) {
	token, ok := extractToken(body)
	if !ok {
		return nil, verifyError(url, errors.New("no token found in auth response", errors.CategoryBadInput))
	}

	info, err := c.verifier.VerifyToken(ctx, token)
	if err != nil {
		return nil, verifyError(url, err)
	}
	if info == nil {
		info = NewUserInfo(nil)
	}
	return info, nil
}

// fail routes the normalized error through the OnError hook.
func (c *Checker) fail(ctx context.Context, err error) error {
	c.hooks.failed(ctx, err)
	return err
}
