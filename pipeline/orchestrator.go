package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tabulate/core"
	"github.com/poiesic/tabulate/extraction"
	"github.com/poiesic/tabulate/retry"
	"github.com/poiesic/tabulate/storage"
)

// MaxConcurrency is the ceiling on per-document pipelines in flight.
const MaxConcurrency = 10

const aggregateService = "aggregate"

// Orchestrator runs batches: bounded fan-out of per-document pipelines,
// a barrier, then one attribute extraction over the successful documents.
type Orchestrator struct {
	extractor       extraction.Extractor
	attributes      extraction.AttributeExtractor
	batches         storage.BatchRepository
	concurrency     int
	documentPolicy  retry.Policy
	aggregatePolicy retry.Policy
	runner          retry.Runner
	observer        Observer
	metrics         *Metrics
	progress        io.Writer
	newID           func() string
	now             func() time.Time
	newPool         func(size int) (*ants.Pool, error)
	logger          *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConcurrency sets the number of documents processed at once.
// Default is MaxConcurrency; values above it are rejected.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 || n > MaxConcurrency {
			return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidConcurrency, n, MaxConcurrency)
		}
		o.concurrency = n
		return nil
	}
}

// WithTimeUnit rebuilds both retry policies around unit.
// Default is DefaultTimeUnit.
func WithTimeUnit(unit time.Duration) Option {
	return func(o *Orchestrator) error {
		if unit < 0 {
			return fmt.Errorf("negative time unit %v", unit)
		}
		o.documentPolicy = DocumentExtractionPolicy(unit)
		o.aggregatePolicy = AggregateExtractionPolicy(unit)
		return nil
	}
}

// WithRunner sets the retry runner, e.g. to replace sleeping in tests.
func WithRunner(runner retry.Runner) Option {
	return func(o *Orchestrator) error {
		o.runner = runner
		return nil
	}
}

// WithBatchRepository records every finished batch in repo.
func WithBatchRepository(repo storage.BatchRepository) Option {
	return func(o *Orchestrator) error {
		o.batches = repo
		return nil
	}
}

// WithMetrics records processing in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) error {
		o.metrics = m
		return nil
	}
}

// WithObserver registers an observer for every document transition.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) error {
		o.observer = observer
		return nil
	}
}

// WithProgress writes per-batch progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) error {
		o.progress = w
		return nil
	}
}

// WithIDGenerator replaces the batch ID source. Default is uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) error {
		o.newID = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "orchestrator")
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given extractors.
func NewOrchestrator(extractor extraction.Extractor, attributes extraction.AttributeExtractor, opts ...Option) (*Orchestrator, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if attributes == nil {
		return nil, ErrAttributeExtractorRequired
	}

	o := &Orchestrator{
		extractor:       extractor,
		attributes:      attributes,
		concurrency:     MaxConcurrency,
		documentPolicy:  DocumentExtractionPolicy(DefaultTimeUnit),
		aggregatePolicy: AggregateExtractionPolicy(DefaultTimeUnit),
		newID:           uuid.NewString,
		now:             func() time.Time { return time.Now().UTC() },
		newPool:         func(size int) (*ants.Pool, error) { return ants.NewPool(size) },
		logger:          slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	onRetry := o.runner.OnRetry
	o.runner.OnRetry = func(p retry.Policy, n int, delay time.Duration, err error) {
		o.metrics.retry(p.Name)
		o.logger.Info("retrying", "policy", p.Name, "retry", n, "delay", delay, "err", err)
		if onRetry != nil {
			onRetry(p, n, delay, err)
		}
	}
	return o, nil
}

// Run processes a batch. The request is normalized and validated first; an
// invalid request returns an error wrapping core.ErrInvalidBatchRequest
// before any document is touched.
//
// Per-document failures are listed in the result. A failed attribute
// extraction yields the fatal result shape with a nil error. A non-nil
// error is returned only for invalid requests and context cancellation.
func (o *Orchestrator) Run(ctx context.Context, req *core.BatchRequest) (*core.BatchResult, error) {
	core.NormalizeBatchRequest(req)
	if err := core.ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	batchID := o.newID()
	started := o.now()
	logger := o.logger.With("batch", batchID)
	logger.Info("batch started",
		"documents", len(req.Documents),
		"attributes", len(req.Attributes),
		"parsing_mode", string(req.ParsingMode))

	outcomes, err := o.fanOut(ctx, logger, req.Tasks())
	if err != nil {
		return nil, err
	}

	var contexts []*core.DocumentContext
	var failures []core.DocumentFailure
	for _, outcome := range outcomes {
		if outcome.OK() {
			contexts = append(contexts, outcome.Context)
			continue
		}
		failures = append(failures, core.DocumentFailure{
			FileName: outcome.FileName,
			Error:    outcome.Err.Error(),
		})
	}

	result, err := o.aggregate(ctx, logger, batchID, req, contexts, failures)
	if err != nil {
		return nil, err
	}

	finished := o.now()
	o.metrics.batchFinished(result.Status, finished.Sub(started))
	o.save(ctx, logger, &core.BatchRecord{
		ID:          batchID,
		Fingerprint: req.Fingerprint().Hex(),
		Request:     req,
		Result:      result,
		StartedAt:   started,
		FinishedAt:  finished,
	})

	logger.Info("batch finished",
		"status", string(result.Status),
		"documents", len(result.Documents),
		"failed", len(failures),
		"duration", finished.Sub(started))
	return result, nil
}

// fanOut runs one pipeline per task on a pool of o.concurrency workers and
// returns the outcomes in task order once all of them are done.
func (o *Orchestrator) fanOut(ctx context.Context, logger *slog.Logger, tasks []core.DocumentTask) ([]core.DocumentOutcome, error) {
	pool, err := o.newPool(o.concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	docs := NewDocumentPipeline(o.extractor,
		WithDocumentPolicy(o.documentPolicy),
		WithDocumentRunner(o.runner),
		WithDocumentObserver(o.observe),
		WithDocumentLogger(logger),
	)

	var progress *ProgressTracker
	if o.progress != nil {
		progress = NewProgressTracker(o.progress, len(tasks))
		progress.Start()
		defer progress.Finish()
	}

	outcomes := make([]core.DocumentOutcome, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		// Submit blocks while every worker is busy
		err := pool.Submit(func() {
			defer wg.Done()
			o.metrics.documentStarted()
			defer o.metrics.documentFinished()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = core.Failed(task.FileName, fmt.Errorf("document pipeline panic: %v", r))
				}
				if progress != nil {
					progress.Complete(!outcomes[i].OK())
				}
			}()
			outcomes[i] = docs.Run(ctx, task)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = core.Failed(task.FileName, fmt.Errorf("schedule document: %w", err))
			if progress != nil {
				progress.Complete(true)
			}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// aggregate extracts attributes from the successful documents under the
// aggregate retry policy.
func (o *Orchestrator) aggregate(
	ctx context.Context,
	logger *slog.Logger,
	batchID string,
	req *core.BatchRequest,
	contexts []*core.DocumentContext,
	failures []core.DocumentFailure,
) (*core.BatchResult, error) {
	if len(contexts) == 0 {
		logger.Warn("no document was extracted, skipping attribute extraction")
		return &core.BatchResult{
			BatchID:   batchID,
			Status:    core.BatchSucceeded,
			Documents: []core.DocumentAttributes{},
			Failures:  failures,
		}, nil
	}

	areq := extraction.AggregateRequest{
		Attributes:   req.Attributes,
		Documents:    contexts,
		ModelParams:  req.ModelParams,
		Instructions: req.Instructions,
		FewShots:     req.FewShots,
	}

	var documents []core.DocumentAttributes
	err := o.runner.Do(ctx, o.aggregatePolicy, func(ctx context.Context) error {
		res, err := o.attributes.ExtractAttributes(ctx, areq)
		if err != nil {
			return extraction.Classify(aggregateService, err)
		}
		ordered, err := inputOrder(contexts, res)
		if err != nil {
			return err
		}
		documents = ordered
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("attribute extraction failed", "err", err)
		return core.NewFailedResult(batchID, failures), nil
	}

	return &core.BatchResult{
		BatchID:   batchID,
		Status:    core.BatchSucceeded,
		Documents: documents,
		Failures:  failures,
	}, nil
}

// inputOrder arranges the extractor's answers in the order of contexts.
// An answer missing for any context makes the whole response malformed.
func inputOrder(contexts []*core.DocumentContext, res *extraction.AggregateResult) ([]core.DocumentAttributes, error) {
	if res == nil {
		return nil, &extraction.TaskFailure{
			Service: aggregateService,
			Err:     fmt.Errorf("%w: empty attribute response", extraction.ErrMalformedPayload),
		}
	}

	byName := make(map[string]core.DocumentAttributes, len(res.Documents))
	for _, doc := range res.Documents {
		byName[doc.FileName] = doc
	}

	ordered := make([]core.DocumentAttributes, 0, len(contexts))
	for _, c := range contexts {
		doc, ok := byName[c.FileName]
		if !ok {
			return nil, &extraction.TaskFailure{
				Service: aggregateService,
				Err:     fmt.Errorf("%w: no attributes for %s", extraction.ErrMalformedPayload, c.FileName),
			}
		}
		if doc.Answer == nil {
			doc.Answer = map[string]any{}
		}
		ordered = append(ordered, doc)
	}
	return ordered, nil
}

func (o *Orchestrator) observe(t Transition) {
	o.metrics.observe(t)
	if o.observer != nil {
		o.observer(t)
	}
}

func (o *Orchestrator) save(ctx context.Context, logger *slog.Logger, record *core.BatchRecord) {
	if o.batches == nil {
		return
	}
	if err := o.batches.SaveBatch(ctx, record); err != nil {
		logger.Warn("failed to save batch record", "err", err)
	}
}
