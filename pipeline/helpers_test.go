package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/retry"
)

const unit = time.Millisecond

type wait struct {
	policy string
	retry  int
	delay  time.Duration
}

// waitRecorder replaces sleeping with bookkeeping.
type waitRecorder struct {
	mu    sync.Mutex
	waits []wait
}

func (w *waitRecorder) runner(rnd func() float64) retry.Runner {
	return retry.Runner{
		Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
		Rand:  rnd,
		OnRetry: func(p retry.Policy, n int, delay time.Duration, err error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.waits = append(w.waits, wait{policy: p.Name, retry: n, delay: delay})
		},
	}
}

func (w *waitRecorder) delays(policy string) []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []time.Duration
	for _, x := range w.waits {
		if x.policy == policy {
			out = append(out, x.delay)
		}
	}
	return out
}

// transitionLog collects observed transitions per file.
type transitionLog struct {
	mu     sync.Mutex
	byFile map[string][]Transition
}

func newTransitionLog() *transitionLog {
	return &transitionLog{byFile: make(map[string][]Transition)}
}

func (l *transitionLog) observe(t Transition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byFile[t.FileName] = append(l.byFile[t.FileName], t)
}

func (l *transitionLog) states(file string) []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []State
	for _, t := range l.byFile[file] {
		out = append(out, t.To)
	}
	return out
}

func (l *transitionLog) transitions(file string) []Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transition(nil), l.byFile[file]...)
}

func transient() error {
	return &extraction.TransientError{Service: "test", Err: extraction.ErrThrottled}
}

func permanent() error {
	return &extraction.TaskFailure{Service: "test", Err: extraction.ErrUnsupportedFormat}
}

func request(docs ...string) *core.BatchRequest {
	return &core.BatchRequest{
		Documents: docs,
		Attributes: []core.Attribute{
			{Name: "sender", Description: "who wrote it"},
			{Name: "topic"},
		},
		ModelParams: core.ModelParams{"model_id": "test-model", "temperature": 0.2},
	}
}
