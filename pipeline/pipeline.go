package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/MrEthical07/goConsole/internal/logging"
)

const (
	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout      = 10 * time.Second
	defaultHeaderPrefix = "Bearer "
	maxResponseBytes    = 8 << 20
)

// AuthPolicy controls whether the bearer token is attached.
type AuthPolicy uint8

const (
	// AuthAttach attaches the stored token when one is present.
	AuthAttach AuthPolicy = iota
	// AuthNone never attaches a token, for the login call.
	AuthNone
)

// TokenSource yields the current access token.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, bool)

func (f TokenFunc) Token(ctx context.Context) (string, bool) { return f(ctx) }

// Request describes one API call. Body, when non-nil, is JSON encoded.
type Request struct {
	Method string
	Path   string
	Body   any
	Auth   AuthPolicy
}

// Response is a 2xx reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// BreakerConfig configures the circuit breaker. Only transport failures
// count; any HTTP status is a success from the breaker's point of view.
type BreakerConfig struct {
	Enabled      bool
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// Config configures a Pipeline.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	HeaderPrefix  string
	Breaker       BreakerConfig
}

// Event describes one attempt. Observers receive it after the attempt
// finished.
type Event struct {
	RequestID string
	Method    string
	Path      string
	Attempt   int
	Status    int
	Err       error
	Latency   time.Duration
}

// Observer receives per-attempt events.
type Observer interface {
	ObserveRequest(Event)
}

// Options carries the collaborators of a Pipeline.
type Options struct {
	Tokens TokenSource
	// OnUnauthorized runs synchronously on a 401 to an AuthAttach request,
	// before the error is returned. It receives a context that is not
	// cancelled with the call.
	OnUnauthorized func(ctx context.Context)
	Observer       Observer
	Logger         logrus.FieldLogger
	Client         *http.Client
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	base     string
	tokens   TokenSource
	onUnauth func(context.Context)
	observer Observer
	log      logrus.FieldLogger
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// New validates cfg and builds a Pipeline.
func New(cfg Config, opts Options) (*Pipeline, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout < 0 || cfg.RetryAttempts < 0 || cfg.RetryDelay < 0 {
		return nil, errors.New("timeout and retry settings cannot be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HeaderPrefix == "" {
		cfg.HeaderPrefix = defaultHeaderPrefix
	}

	p := &Pipeline{
		cfg:      cfg,
		base:     strings.TrimRight(u.String(), "/"),
		tokens:   opts.Tokens,
		onUnauth: opts.OnUnauthorized,
		observer: opts.Observer,
		log:      opts.Logger,
		client:   opts.Client,
	}
	if p.log == nil {
		p.log = logging.Discard()
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	if cfg.Breaker.Enabled {
		p.breaker = newBreaker(cfg.Breaker)
	}
	return p, nil
}

func newBreaker(bc BreakerConfig) *gobreaker.CircuitBreaker {
	minRequests := bc.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	ratio := bc.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "admin-api",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// BreakerState reports the circuit breaker state, or "disabled".
func (p *Pipeline) BreakerState() string {
	if p.breaker == nil {
		return "disabled"
	}
	return p.breaker.State().String()
}

// Do sends req. GET requests that fail with ErrUnreachable are retried up to
// RetryAttempts times.
func (p *Pipeline) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("request path %q must be absolute", req.Path)
	}

	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += p.cfg.RetryAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, p.cfg.RetryDelay); err != nil {
				return nil, classify(err)
			}
		}
		resp, err := p.send(ctx, method, req, body, attempt)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, ErrUnreachable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (p *Pipeline) send(parent context.Context, method string, req Request, body []byte, attempt int) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, p.cfg.Timeout)
	defer cancel()

	requestID := uuid.NewString()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, p.base+req.Path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if p.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	if req.Auth == AuthAttach && p.tokens != nil {
		if token, ok := p.tokens.Token(ctx); ok && token != "" {
			httpReq.Header.Set("Authorization", p.cfg.HeaderPrefix+token)
		}
	}

	start := time.Now()
	status, header, respBody, err := p.roundTrip(httpReq)
	ev := Event{
		RequestID: requestID,
		Method:    method,
		Path:      req.Path,
		Attempt:   attempt,
		Status:    status,
		Latency:   time.Since(start),
	}

	fields := logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       req.Path,
		"attempt":    attempt,
		"latency_ms": ev.Latency.Milliseconds(),
	}

	if err != nil {
		ev.Err = classify(err)
		p.observe(ev)
		p.log.WithFields(fields).WithError(err).Debug("api call failed")
		return nil, ev.Err
	}
	fields["status"] = status

	switch {
	case status == http.StatusUnauthorized:
		serr := newStatusError(method, req.Path, status, respBody, requestID)
		ev.Err = fmt.Errorf("%w: %w", ErrUnauthorized, serr)
		p.observe(ev)
		p.log.WithFields(fields).Debug("api call unauthorized")
		if p.onUnauth != nil && req.Auth == AuthAttach {
			p.onUnauth(context.WithoutCancel(parent))
		}
		return nil, ev.Err
	case status < 200 || status > 299:
		serr := newStatusError(method, req.Path, status, respBody, requestID)
		ev.Err = serr
		p.observe(ev)
		p.log.WithFields(fields).Debug("api call rejected")
		return nil, serr
	}

	p.observe(ev)
	p.log.WithFields(fields).Debug("api call completed")
	return &Response{StatusCode: status, Header: header, Body: respBody, RequestID: requestID}, nil
}

// roundTrip performs the HTTP exchange and reads the body inside the breaker
// so that a body cut short by the network counts as a transport failure.
func (p *Pipeline) roundTrip(req *http.Request) (int, http.Header, []byte, error) {
	type result struct {
		status int
		header http.Header
		body   []byte
	}

	exchange := func() (interface{}, error) {
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		return result{status: resp.StatusCode, header: resp.Header, body: body}, nil
	}

	var (
		out interface{}
		err error
	)
	if p.breaker != nil {
		out, err = p.breaker.Execute(exchange)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, nil, fmt.Errorf("%w: circuit %v", ErrUnreachable, err)
		}
	} else {
		out, err = exchange()
	}
	if err != nil {
		return 0, nil, nil, err
	}
	r := out.(result)
	return r.status, r.header, r.body, nil
}

func (p *Pipeline) observe(ev Event) {
	if p.observer != nil {
		p.observer.ObserveRequest(ev)
	}
}

// classify maps transport errors onto ErrTimeout and ErrUnreachable.
// Caller cancellation is returned unchanged.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnreachable), errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
