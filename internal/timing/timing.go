// Package timing measures how long a connection spends in each state of
// the dispatcher's state machine: tls_handshaking, parsing (reading
// headers and body), dispatching, and writing_response.
package timing

import "time"

// Phases captures how long a single connection spent in each dispatcher
// state. A zero duration means the phase did not run (e.g. TLSHandshake
// on a plaintext connection).
type Phases struct {
	TLSHandshake    time.Duration
	Parsing         time.Duration
	Dispatching     time.Duration
	WritingResponse time.Duration
	Total           time.Duration
}

// Timer accumulates phase boundaries for one connection's lifetime.
type Timer struct {
	start      time.Time
	phaseStart time.Time
	phases     Phases
}

// NewTimer starts a timing session for one connection.
func NewTimer() *Timer {
	now := time.Now()
	return &Timer{start: now, phaseStart: now}
}

func (t *Timer) mark(dst *time.Duration) {
	now := time.Now()
	*dst = now.Sub(t.phaseStart)
	t.phaseStart = now
}

// MarkTLSHandshake closes out the TLS handshake phase.
func (t *Timer) MarkTLSHandshake() { t.mark(&t.phases.TLSHandshake) }

// MarkParsing closes out the request parsing phase.
func (t *Timer) MarkParsing() { t.mark(&t.phases.Parsing) }

// MarkDispatching closes out the route-lookup-and-handler phase.
func (t *Timer) MarkDispatching() { t.mark(&t.phases.Dispatching) }

// MarkWritingResponse closes out the response write phase.
func (t *Timer) MarkWritingResponse() { t.mark(&t.phases.WritingResponse) }

// Finish closes the timer and returns the accumulated phase durations.
func (t *Timer) Finish() Phases {
	t.phases.Total = time.Since(t.start)
	return t.phases
}

// String renders the phases for debug logging.
func (p Phases) String() string {
	return "tls=" + p.TLSHandshake.String() +
		" parsing=" + p.Parsing.String() +
		" dispatching=" + p.Dispatching.String() +
		" write=" + p.WritingResponse.String() +
		" total=" + p.Total.String()
}
