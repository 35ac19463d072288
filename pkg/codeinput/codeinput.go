// Package codeinput implements the client-side discount code field: a
// debounced, race-safe validation state machine around a validation
// transport.
//
// Every keystroke restarts a debounce timer; only the last value within the
// window triggers a request. Blur validates immediately. Responses are
// matched against the input value current at arrival time, so an
// earlier-issued request that completes late can never overwrite state
// produced for newer input. Transport failures surface as StateUnknown, a
// deliberately silent state: discount validation is advisory and the server
// re-validates at submission.
package codeinput

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State is the field's rendering state.
type State string

const (
	// StateIdle clears both error and success decoration.
	StateIdle State = "idle"
	// StatePending marks a validation request in flight.
	StatePending State = "pending"
	// StateValid marks a confirmed code with its confirmation text.
	StateValid State = "valid"
	// StateInvalid marks a rejected code with its error text.
	StateInvalid State = "invalid"
	// StateUnknown marks a transport failure. It neither blocks nor
	// confirms; rendering must stay visually silent.
	StateUnknown State = "unknown"
)

// DefaultDebounce is the pause after the last keystroke before a request is
// issued.
const DefaultDebounce = 500 * time.Millisecond

// Result is the business outcome of one validation call.
type Result struct {
	Valid   bool
	Message string
}

// Transport performs a single validation call. An error return means the
// call itself failed (network fault, timeout, request-level rejection) and
// is not evidence of an invalid code.
type Transport interface {
	Validate(ctx context.Context, code string) (Result, error)
}

// Renderer receives state transitions. Calls are serialized and happen under
// the validator's internal lock: a Renderer must not call back into the
// Validator.
type Renderer interface {
	Render(state State, message string)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(state State, message string)

// Render calls f.
func (f RenderFunc) Render(state State, message string) { f(state, message) }

// Option configures a Validator.
type Option func(*Validator)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(v *Validator) { v.debounce = d }
}

// WithTimeout bounds each validation call. Zero means the transport's own
// deadline applies.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) { v.timeout = d }
}

// Validator is the debounced validation state machine for one input field.
// All methods are safe for concurrent use.
type Validator struct {
	transport Transport
	debounce  time.Duration
	timeout   time.Duration

	base       context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	renderer Renderer
	input    string // current normalized input
	seq      uint64 // id of the most recently issued request
	timer    *time.Timer
	cancel   context.CancelFunc // cancels the in-flight request, if any
}

// New creates a Validator. Call Close when the field is torn down.
func New(transport Transport, renderer Renderer, opts ...Option) *Validator {
	base, cancel := context.WithCancel(context.Background())
	v := &Validator{
		transport:  transport,
		renderer:   renderer,
		debounce:   DefaultDebounce,
		base:       base,
		cancelBase: cancel,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Input records a keystroke. The debounce timer restarts; a previously
// scheduled request for older input will not fire. An input emptied by the
// keystroke clears the field to idle without any server round trip.
func (v *Validator) Input(raw string) {
	normalized := normalize(raw)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.input = normalized
	v.stopTimerLocked()

	if normalized == "" {
		// Invalidate any in-flight response and clear.
		v.seq++
		v.abortInFlightLocked()
		v.renderer.Render(StateIdle, "")
		return
	}

	v.timer = time.AfterFunc(v.debounce, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		// Fire only if this is still the current input; a later keystroke
		// or blur already superseded this timer.
		if v.input == normalized {
			v.issueLocked(normalized)
		}
	})
	v.renderer.Render(StateIdle, "")
}

// Blur validates the current input immediately, regardless of any pending
// debounce timer. A user who tabs away without pausing still gets feedback.
func (v *Validator) Blur() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopTimerLocked()

	if v.input == "" {
		v.seq++
		v.abortInFlightLocked()
		v.renderer.Render(StateIdle, "")
		return
	}
	v.issueLocked(v.input)
}

// Close cancels timers and any in-flight request. No renders happen after
// Close returns.
func (v *Validator) Close() {
	v.mu.Lock()
	v.stopTimerLocked()
	v.abortInFlightLocked()
	v.seq++
	v.mu.Unlock()
	v.cancelBase()
}

// issueLocked starts a validation request for value. Caller holds v.mu.
func (v *Validator) issueLocked(value string) {
	v.seq++
	seq := v.seq

	// A superseded in-flight request is aborted; its response would be
	// discarded anyway, cancelling just stops wasted work.
	v.abortInFlightLocked()

	ctx := v.base
	var cancel context.CancelFunc
	if v.timeout > 0 {
		ctx, cancel = context.WithTimeout(v.base, v.timeout)
	} else {
		ctx, cancel = context.WithCancel(v.base)
	}
	v.cancel = cancel

	v.renderer.Render(StatePending, "")

	go func() {
		result, err := v.transport.Validate(ctx, value)
		cancel()

		v.mu.Lock()
		defer v.mu.Unlock()
		// Only the response matching the newest issued request AND the
		// input value current right now may update the field.
		if seq != v.seq || value != v.input {
			return
		}
		v.cancel = nil

		switch {
		case err != nil:
			v.renderer.Render(StateUnknown, "")
		case result.Valid:
			v.renderer.Render(StateValid, result.Message)
		default:
			v.renderer.Render(StateInvalid, result.Message)
		}
	}()
}

func (v *Validator) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *Validator) abortInFlightLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
