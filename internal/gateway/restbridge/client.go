package restbridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/resilience"
)

const (
	callPathPrefix = "/bridge/call/"
	healthPath     = "/bridge/health"

	DefaultTimeout      = 10 * time.Second
	DefaultRetryMax     = 3
	DefaultProbeTimeout = 750 * time.Millisecond
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RetryMax is the retry budget per call; zero means the default,
	// negative disables retries.
	RetryMax int
	// RequestsPerSecond caps outbound call rate; zero means unlimited.
	RequestsPerSecond float64
	Logger            *logging.Logger
}

// Client posts bridge operations to an HTTP runtime. Each report becomes
// POST /bridge/call/<name> with the payload as the JSON body; delivery is
// asynchronous and settles the dispatch with the final outcome. A circuit
// breaker keeps an unreachable runtime from absorbing retry storms, and
// reachability probes ride a separate short-timeout client so they never
// inherit the retry budget.
type Client struct {
	base    string
	timeout time.Duration
	http    *resty.Client
	probe   *http.Client
	breaker *resilience.Breaker
	limiter *rate.Limiter
	log     *logging.Logger
}

// NewClient creates a REST bridge client for the given runtime base URL.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retryMax := DefaultRetryMax
	if opts.RetryMax > 0 {
		retryMax = opts.RetryMax
	} else if opts.RetryMax < 0 {
		retryMax = 0
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Component("restbridge")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	base := strings.TrimRight(opts.BaseURL, "/")
	restyClient := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(retryMax).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", "deskshell-bridge/1.0")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("rest-bridge", resilience.Settings{
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Bridge circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		base:    base,
		timeout: timeout,
		http:    restyClient,
		probe:   &http.Client{Timeout: DefaultProbeTimeout},
		breaker: breaker,
		limiter: limiter,
		log:     log,
	}
}

// Binding implements bridge.Gateway. An HTTP runtime exposes no direct
// in-process callables.
func (c *Client) Binding(name string) (bridge.Binding, bool) {
	return nil, false
}

// Invoker implements bridge.Gateway.
func (c *Client) Invoker() (bridge.Invoker, bool) {
	return c, true
}

// Call implements bridge.Invoker. The HTTP round trip runs off the
// caller's goroutine so report producers never block on the network.
func (c *Client) Call(name, payload string) *bridge.Dispatch {
	d := bridge.NewDispatch(name)
	go func() {
		d.Complete(c.post(name, payload))
	}()
	return d
}

func (c *Client) post(name, payload string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	return c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post(callPathPrefix + name)
		if err != nil {
			return fmt.Errorf("post %s: %w", name, err)
		}
		if resp.IsError() {
			return fmt.Errorf("post %s: %s", name, resp.Status())
		}
		return nil
	})
}

// Connected implements bridge.ConnectionProber. An open circuit answers
// false without touching the network; otherwise a HEAD against the
// runtime health endpoint decides.
func (c *Client) Connected() bool {
	if !c.breaker.Allow() {
		return false
	}

	req, err := http.NewRequest(http.MethodHead, c.base+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusBadRequest
}

// BreakerState exposes the circuit state for diagnostics.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
