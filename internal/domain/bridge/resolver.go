package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/shared/codec"
)

// Recorder absorbs dispatch outcomes into the connection metrics. The
// monitor implements it; the resolver never touches those counters
// directly.
type Recorder interface {
	RecordDispatchSuccess(operation string)
	RecordDispatchFailure(operation string, err error)
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Strategies overrides the name-spelling resolution order.
	Strategies []NameStrategy
	// Mute lists operation-name glob patterns whose dispatches are not
	// debug-logged. Metrics and counters always record.
	Mute    []string
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Resolver locates a callable backend entry point for a logical
// operation name, tolerating naming-convention drift, and performs the
// call. Call reports whether anything was dispatched, not whether the
// call ultimately succeeded; asynchronous failures land in the Recorder.
type Resolver struct {
	gateway    Gateway
	strategies []NameStrategy
	mute       []string
	log        *logging.Logger
	metrics    *monitoring.Metrics

	mu       sync.RWMutex
	recorder Recorder
}

// NewResolver creates a resolver over the given gateway.
func NewResolver(gateway Gateway, opts ResolverOptions) *Resolver {
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	r := &Resolver{
		gateway:    gateway,
		strategies: strategies,
		log:        log.Component("resolver"),
		metrics:    opts.Metrics,
	}
	for _, pattern := range opts.Mute {
		if !doublestar.ValidatePattern(pattern) {
			r.log.Warn("Ignoring invalid mute pattern", zap.String("pattern", pattern))
			continue
		}
		r.mute = append(r.mute, pattern)
	}
	return r
}

// SetRecorder wires the outcome sink. Called once during assembly; the
// monitor needs the resolver for its reports, so the recorder arrives
// after construction.
func (r *Resolver) SetRecorder(rec Recorder) {
	r.mu.Lock()
	r.recorder = rec
	r.mu.Unlock()
}

// Call serializes payload and dispatches it to the backend under the
// given logical operation name. Returns true only when the payload
// landed: a direct binding ran without error, or the generic invoker
// accepted the call (which may still fail asynchronously). A false
// return leaves retry with the caller; a failed direct invocation never
// falls through to the invoker.
func (r *Resolver) Call(operation string, payload interface{}) bool {
	text, err := codec.MarshalString(payload)
	if err != nil {
		r.recordFailure(operation, fmt.Errorf("payload serialization: %w", err))
		return false
	}

	if binding, spelling, ok := r.resolveBinding(operation); ok {
		start := time.Now()
		err := r.invokeDirect(binding, text)
		if err != nil {
			r.metrics.RecordDispatch(operation, "failure", time.Since(start))
			r.recordFailure(operation, err)
			if !r.muted(operation) {
				r.log.Warn("Direct dispatch failed",
					zap.String("operation", operation),
					zap.String("spelling", spelling),
					zap.Error(err))
			}
			return false
		}
		r.metrics.RecordDispatch(operation, "success", time.Since(start))
		r.recordSuccess(operation)
		if !r.muted(operation) {
			r.log.Debug("Dispatched",
				zap.String("operation", operation),
				zap.String("spelling", spelling))
		}
		return true
	}

	if invoker, ok := r.gateway.Invoker(); ok {
		d := invoker.Call(operation, text)
		d.OnComplete(func(err error) {
			if err != nil {
				r.metrics.RecordDispatch(operation, "failure", d.Elapsed())
				r.recordFailure(operation, err)
				return
			}
			r.metrics.RecordDispatch(operation, "success", d.Elapsed())
			r.recordSuccess(operation)
		})
		if !r.muted(operation) {
			r.log.Debug("Dispatched via invoker", zap.String("operation", operation))
		}
		return true
	}

	r.metrics.RecordResolutionMiss()
	if !r.muted(operation) {
		r.log.Debug("No binding or invoker resolved", zap.String("operation", operation))
	}
	return false
}

// resolveBinding tries each name spelling in order and returns the first
// binding that resolves, along with the spelling that matched.
func (r *Resolver) resolveBinding(operation string) (Binding, string, bool) {
	tried := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		name := s.Transform(operation)
		if contains(tried, name) {
			continue
		}
		tried = append(tried, name)
		if b, ok := r.gateway.Binding(name); ok {
			return b, name, true
		}
	}
	return nil, "", false
}

// invokeDirect runs a binding inside a failure-isolating boundary. A
// panicking binding becomes a recorded failure, never a crash.
func (r *Resolver) invokeDirect(b Binding, payload string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("binding panic: %v", rec)
		}
	}()
	return b(payload)
}

func (r *Resolver) recordSuccess(operation string) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordDispatchSuccess(operation)
	}
}

func (r *Resolver) recordFailure(operation string, err error) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordDispatchFailure(operation, err)
	}
}

// muted reports whether per-dispatch logging is suppressed for this
// operation name.
func (r *Resolver) muted(operation string) bool {
	for _, pattern := range r.mute {
		if ok, err := doublestar.Match(pattern, operation); err == nil && ok {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
