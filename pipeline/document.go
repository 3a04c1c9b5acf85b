package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/retry"
)

// DocumentPipeline runs the per-document state machine.
// A single DocumentPipeline is safe for concurrent use; each Run owns its state.
type DocumentPipeline struct {
	extractor extraction.Extractor
	policy    retry.Policy
	runner    retry.Runner
	observer  Observer
	logger    *slog.Logger
}

// DocumentOption configures a DocumentPipeline.
type DocumentOption func(*DocumentPipeline)

// WithDocumentPolicy replaces the extraction retry policy.
func WithDocumentPolicy(policy retry.Policy) DocumentOption {
	return func(p *DocumentPipeline) {
		p.policy = policy
	}
}

// WithDocumentRunner sets the runner that waits between attempts.
func WithDocumentRunner(runner retry.Runner) DocumentOption {
	return func(p *DocumentPipeline) {
		p.runner = runner
	}
}

// WithDocumentObserver registers a transition observer.
func WithDocumentObserver(observer Observer) DocumentOption {
	return func(p *DocumentPipeline) {
		p.observer = observer
	}
}

// WithDocumentLogger sets a custom logger.
func WithDocumentLogger(logger *slog.Logger) DocumentOption {
	return func(p *DocumentPipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewDocumentPipeline creates a pipeline over extractor using
// DocumentExtractionPolicy(DefaultTimeUnit) unless overridden.
func NewDocumentPipeline(extractor extraction.Extractor, opts ...DocumentOption) *DocumentPipeline {
	p := &DocumentPipeline{
		extractor: extractor,
		policy:    DocumentExtractionPolicy(DefaultTimeUnit),
		logger:    slog.Default().With("component", "document-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// documentRun is the mutable state of one execution.
type documentRun struct {
	task     core.DocumentTask
	modality core.Modality
	state    State
	attempts int
	retries  int
	delay    time.Duration
	payload  extraction.Payload
	context  *core.DocumentContext
	err      error
}

// Run drives task to a terminal state. It never returns an error: a failure
// is captured in the outcome.
func (p *DocumentPipeline) Run(ctx context.Context, task core.DocumentTask) core.DocumentOutcome {
	r := &documentRun{task: task, state: StateClassifying}
	for !r.state.Terminal() {
		p.step(ctx, r)
	}

	if r.state == StateDone {
		return core.Succeeded(r.context)
	}
	p.logger.Warn("document failed",
		"file", task.FileName,
		"modality", r.modality.String(),
		"attempts", r.attempts,
		"err", r.err)
	return core.Failed(task.FileName, r.err)
}

func (p *DocumentPipeline) step(ctx context.Context, r *documentRun) {
	switch r.state {
	case StateClassifying:
		r.modality = core.Classify(r.task.FileName)
		p.move(r, StateExtracting)

	case StateExtracting:
		r.attempts++
		r.delay = 0
		payload, err := p.extractor.Extract(ctx, r.modality, r.task)
		switch {
		case err == nil:
			r.payload = payload
			p.move(r, StateMerging)
		case ctx.Err() != nil:
			r.err = err
			p.move(r, StateFailed)
		case p.policy.ShouldRetry(err, r.retries):
			r.err = err
			p.move(r, StateRetrying)
		case p.retryable(err):
			r.err = &retry.ExhaustedError{Policy: p.policy.Name, Attempts: r.attempts, Err: err}
			p.move(r, StateFailed)
		default:
			r.err = err
			p.move(r, StateFailed)
		}

	case StateRetrying:
		r.retries++
		delay, err := p.runner.Wait(ctx, p.policy, r.retries, r.err)
		if err != nil {
			r.err = err
			p.move(r, StateFailed)
			return
		}
		r.delay = delay
		p.move(r, StateExtracting)

	case StateMerging:
		// Audio answers are self-contained and kept apart from the request fields
		if r.modality == core.ModalityAudio {
			r.context = core.NewAnswerContext(r.task, r.payload)
		} else {
			r.context = core.NewMergedContext(r.task, r.modality, r.payload)
		}
		p.move(r, StateDone)
	}
}

func (p *DocumentPipeline) retryable(err error) bool {
	return p.policy.Retryable == nil || p.policy.Retryable(err)
}

func (p *DocumentPipeline) move(r *documentRun, to State) {
	t := Transition{
		FileName: r.task.FileName,
		Modality: r.modality,
		From:     r.state,
		To:       to,
		Attempt:  r.attempts,
		Delay:    r.delay,
	}
	if to == StateRetrying || to == StateFailed {
		t.Err = r.err
	}
	r.state = to

	p.logger.Debug("document transition",
		"file", t.FileName,
		"from", t.From.String(),
		"to", t.To.String(),
		"attempt", t.Attempt)
	if p.observer != nil {
		p.observer(t)
	}
}
