package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a pipeline run.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Timer records the duration of consecutive named phases, e.g. the fetch,
// parse and persist steps of one map file analysis.
type Timer struct {
	mu     sync.Mutex
	name   string
	clock  Clock
	start  time.Time
	phases []Phase
}

// NewTimer creates a Timer. A nil clock uses the real time.
func NewTimer(name string, clock Clock) *Timer {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Timer{name: name, clock: clock, start: clock.Now()}
}

// Start begins a phase. The returned function ends it and returns its
// duration; calling it more than once records the phase once.
func (t *Timer) Start(phase string) func() time.Duration {
	begin := t.clock.Now()
	var once sync.Once
	var d time.Duration

	return func() time.Duration {
		once.Do(func() {
			d = t.clock.Since(begin)
			t.mu.Lock()
			t.phases = append(t.phases, Phase{Name: phase, Duration: d})
			t.mu.Unlock()
		})
		return d
	}
}

// Phases returns the recorded phases in the order they ended.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Total returns the time elapsed since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Since(t.start)
}

// Summary formats the phases on one line, e.g. "analyze: fetch=2ms parse=10ms total=12ms".
func (t *Timer) Summary() string {
	var b strings.Builder
	b.WriteString(t.name)
	b.WriteByte(':')
	for _, p := range t.Phases() {
		fmt.Fprintf(&b, " %s=%s", p.Name, p.Duration)
	}
	fmt.Fprintf(&b, " total=%s", t.Total())
	return b.String()
}

// Log writes the summary to logger at debug level.
func (t *Timer) Log(logger Logger) {
	if logger != nil {
		logger.Debug("%s", t.Summary())
	}
}
