package codeinput

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every render in order.
type recorder struct {
	mu      sync.Mutex
	renders []render
}

type render struct {
	state   State
	message string
}

func (r *recorder) Render(state State, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, render{state: state, message: message})
}

func (r *recorder) all() []render {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]render, len(r.renders))
	copy(out, r.renders)
	return out
}

func (r *recorder) last() (render, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.renders) == 0 {
		return render{}, false
	}
	return r.renders[len(r.renders)-1], true
}

// waitForState polls until the last render matches the wanted state.
func (r *recorder) waitForState(t *testing.T, want State) render {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if last, ok := r.last(); ok && last.state == want {
			return last
		}
		time.Sleep(2 * time.Millisecond)
	}
	last, _ := r.last()
	t.Fatalf("timed out waiting for state %q, last render: %+v", want, last)
	return render{}
}

// stubTransport answers from a fixed table and records call order.
type stubTransport struct {
	mu      sync.Mutex
	calls   []string
	results map[string]Result
	err     error
}

func (s *stubTransport) Validate(_ context.Context, code string) (Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, code)
	s.mu.Unlock()
	if s.err != nil {
		return Result{}, s.err
	}
	return s.results[code], nil
}

func (s *stubTransport) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// blockingTransport parks each call until the test releases it.
type blockingTransport struct {
	mu       sync.Mutex
	arrived  chan string
	releases map[string]chan Result
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{
		arrived:  make(chan string, 16),
		releases: map[string]chan Result{},
	}
}

func (b *blockingTransport) expect(code string) chan Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Result, 1)
	b.releases[code] = ch
	return ch
}

func (b *blockingTransport) Validate(_ context.Context, code string) (Result, error) {
	b.mu.Lock()
	ch := b.releases[code]
	b.mu.Unlock()

	b.arrived <- code
	return <-ch, nil
}

func (b *blockingTransport) waitArrival(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-b.arrived:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for request %q", want)
	}
}

func TestValidator_DebounceCoalescesKeystrokes(t *testing.T) {
	transport := &stubTransport{results: map[string]Result{
		"AB": {Valid: true, Message: "Discount code applied: 10% off."},
	}}
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(60*time.Millisecond))
	defer v.Close()

	// "A" then "AB" within the debounce window: exactly one request, for "AB".
	v.Input("A")
	time.Sleep(20 * time.Millisecond)
	v.Input("AB")

	last := rec.waitForState(t, StateValid)
	assert.Equal(t, "Discount code applied: 10% off.", last.message)
	assert.Equal(t, []string{"AB"}, transport.callLog())
}

func TestValidator_StaleResponseDoesNotOverwriteNewerState(t *testing.T) {
	transport := newBlockingTransport()
	releaseAB := transport.expect("AB")
	releaseABC := transport.expect("ABC")
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(10*time.Millisecond))
	defer v.Close()

	// First request goes in flight for "AB" and stays parked.
	v.Input("AB")
	transport.waitArrival(t, "AB")

	// Blur for newer input issues a second request while the first is still
	// pending.
	v.Input("ABC")
	v.Blur()
	transport.waitArrival(t, "ABC")

	// The newer request completes first.
	releaseABC <- Result{Valid: true, Message: "abc confirmed"}
	last := rec.waitForState(t, StateValid)
	assert.Equal(t, "abc confirmed", last.message)

	// The older request completes later; its response must be discarded.
	releaseAB <- Result{Valid: false, Message: "ab rejected"}
	time.Sleep(50 * time.Millisecond)

	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, StateValid, last.state)
	assert.Equal(t, "abc confirmed", last.message)
	for _, r := range rec.all() {
		assert.NotEqual(t, "ab rejected", r.message)
	}
}

func TestValidator_BlurValidatesImmediately(t *testing.T) {
	transport := &stubTransport{results: map[string]Result{
		"SAVE10": {Valid: true, Message: "ok"},
	}}
	rec := &recorder{}

	// Debounce far longer than the test: only blur can trigger the request.
	v := New(transport, rec, WithDebounce(time.Hour))
	defer v.Close()

	v.Input("save10")
	v.Blur()

	rec.waitForState(t, StateValid)
	assert.Equal(t, []string{"SAVE10"}, transport.callLog())
}

func TestValidator_EmptyInputClearsWithoutRequest(t *testing.T) {
	transport := &stubTransport{}
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Input("   ")
	v.Blur()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, transport.callLog())
	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, StateIdle, last.state)
}

func TestValidator_ClearingInputInvalidatesInFlightResponse(t *testing.T) {
	transport := newBlockingTransport()
	release := transport.expect("AB")
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Input("AB")
	transport.waitArrival(t, "AB")

	// Field cleared while the request is pending: the field goes idle and
	// the late response must not resurrect any decoration.
	v.Input("")
	release <- Result{Valid: true, Message: "too late"}
	time.Sleep(50 * time.Millisecond)

	last, ok := rec.last()
	require.True(t, ok)
	assert.Equal(t, StateIdle, last.state)
}

func TestValidator_TransportFailureIsUnknownNotInvalid(t *testing.T) {
	transport := &stubTransport{err: errors.New("network down")}
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Input("SAVE10")
	last := rec.waitForState(t, StateUnknown)
	// Unknown renders silently: no message, no error styling.
	assert.Empty(t, last.message)
	for _, r := range rec.all() {
		assert.NotEqual(t, StateInvalid, r.state)
	}
}

func TestValidator_InvalidCodeRendersMessage(t *testing.T) {
	transport := &stubTransport{results: map[string]Result{
		"BOGUS": {Valid: false, Message: "This discount code is not valid."},
	}}
	rec := &recorder{}

	v := New(transport, rec, WithDebounce(10*time.Millisecond))
	defer v.Close()

	v.Input("bogus")
	last := rec.waitForState(t, StateInvalid)
	assert.Equal(t, "This discount code is not valid.", last.message)
}
