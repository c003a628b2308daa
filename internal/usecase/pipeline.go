package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const (
	defaultWorkers    = 4
	defaultRunTimeout = 300 * time.Second
	releaseTimeout    = 5 * time.Second
)

// Trigger names used in reports and metrics.
const (
	TriggerManual = "manual"
	TriggerCron   = "cron"
	TriggerSched  = "scheduler"
	TriggerCLI    = "cli"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.CandidateSource
	Classifier ports.Classifier
	Analyzer   ports.Analyzer
	Repository ports.ArticleRepository
	Lock       ports.RunLock
	Notifier   ports.Notifier
	Recorder   ports.RunRecorder
	Logger     *slog.Logger

	Workers    int
	RunTimeout time.Duration
}

// Pipeline implements the fetch, classify, dedup and persist workflow.
type Pipeline struct {
	source     ports.CandidateSource
	classifier ports.Classifier
	analyzer   ports.Analyzer
	gate       *Gate
	lock       ports.RunLock
	notifier   ports.Notifier
	recorder   ports.RunRecorder
	logger     *slog.Logger

	workers    int
	runTimeout time.Duration
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := deps.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}

	return &Pipeline{
		source:     deps.Source,
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
		gate:       NewGate(deps.Repository),
		lock:       deps.Lock,
		notifier:   deps.Notifier,
		recorder:   deps.Recorder,
		logger:     logger,
		workers:    workers,
		runTimeout: timeout,
		now:        time.Now,
	}
}

// Run ingests the given sources (all configured ones when empty) and reports per-source counts.
// Source failures are isolated in the report; the error is reserved for run-level failures.
func (p *Pipeline) Run(ctx context.Context, trigger string, sources []domain.Source) (domain.RunReport, error) {
	started := p.now()
	report := domain.RunReport{Trigger: trigger, StartedAt: started.UTC()}

	if p.source == nil {
		return report, errors.New("pipeline has no candidate source")
	}
	if len(sources) == 0 {
		sources = p.source.Sources()
	}

	release, err := p.acquire(ctx)
	if err != nil {
		p.finish(trigger, &report, started, err)
		return report, err
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, p.runTimeout)
	defer cancel()

	results := make([]domain.SourceResult, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = p.runSource(runCtx, src)
			return nil
		})
	}
	_ = g.Wait()
	report.Results = results

	var runErr error
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		runErr = fmt.Errorf("ingestion run exceeded %s: %w", p.runTimeout, context.DeadlineExceeded)
	}

	p.finish(trigger, &report, started, runErr)
	if runErr == nil {
		p.notify(ctx, report)
	}
	return report, runErr
}

func (p *Pipeline) acquire(ctx context.Context) (func(), error) {
	if p.lock == nil {
		return func() {}, nil
	}

	release, err := p.lock.TryAcquire(ctx)
	if errors.Is(err, domain.ErrRunInProgress) {
		return nil, err
	}
	if err != nil {
		// A broken lock backend must not block ingestion; uniqueness still holds.
		p.logger.Warn("run lock unavailable, continuing without exclusion", "error", err)
		return func() {}, nil
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			p.logger.Warn("release run lock", "error", err)
		}
	}, nil
}

func (p *Pipeline) runSource(ctx context.Context, source domain.Source) domain.SourceResult {
	result := domain.SourceResult{Source: source}
	logger := p.logger.With("source", source)

	candidates, err := p.source.Fetch(ctx, source)
	if err != nil {
		logger.Warn("source fetch failed", "error", err)
		result.Error = err.Error()
		return result
	}
	result.ArticlesFound = len(candidates)

	fresh, err := p.gate.Unseen(ctx, source, candidates)
	if err != nil {
		logger.Warn("known url pre-check failed", "error", err)
		fresh = candidates
	}
	logger.Debug("candidates fetched", "found", len(candidates), "unseen", len(fresh))

	var (
		mu      sync.Mutex
		storage error
	)
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for _, candidate := range fresh {
		if candidate.Source == "" {
			candidate.Source = source
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			article, inserted, err := p.process(ctx, candidate)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case domain.IsStorage(err):
				result.StorageFailed = true
				if storage == nil {
					storage = err
				}
			case err != nil:
				logger.Debug("candidate skipped", "url", candidate.ArticleURL, "error", err)
			case inserted:
				result.ArticlesFiltered++
				result.Admitted = append(result.Admitted, article)
			}
			return nil
		})
	}
	_ = g.Wait()

	if storage != nil {
		logger.Error("article insert failed", "error", storage)
		result.Error = storage.Error()
	}
	return result
}

func (p *Pipeline) process(ctx context.Context, candidate domain.Candidate) (domain.Article, bool, error) {
	cls := p.classify(ctx, candidate)
	return p.gate.Admit(ctx, candidate, cls)
}

func (p *Pipeline) classify(ctx context.Context, candidate domain.Candidate) domain.Classification {
	if p.classifier == nil {
		return domain.DefaultClassification()
	}

	cls, err := p.classifier.Classify(ctx, candidate)
	if err != nil {
		p.logger.Warn("classification failed, using default", "url", candidate.ArticleURL, "error", err)
		return domain.DefaultClassification()
	}

	if p.analyzer != nil && cls.AIAnalysis == "" && cls.Relevance != domain.RelevanceLow {
		note, err := p.analyzer.Analyze(ctx, candidate, cls)
		if err != nil {
			p.logger.Warn("ai analysis failed", "url", candidate.ArticleURL, "error", err)
		} else {
			cls.AIAnalysis = note
		}
	}
	return cls
}

func (p *Pipeline) finish(trigger string, report *domain.RunReport, started time.Time, err error) {
	finished := p.now()
	report.FinishedAt = finished.UTC()
	duration := finished.Sub(started)

	if p.recorder != nil {
		p.recorder.RecordRun(trigger, *report, duration, err)
	}

	attrs := []any{
		"trigger", trigger,
		"duration", duration.Round(time.Millisecond).String(),
		"found", report.TotalFound(),
		"filtered", report.TotalFiltered(),
	}
	for _, res := range report.Results {
		attrs = append(attrs, strings.ToLower(string(res.Source)), fmt.Sprintf("%d/%d", res.ArticlesFound, res.ArticlesFiltered))
	}
	if err != nil {
		p.logger.Error("ingestion run failed", append(attrs, "error", err)...)
		return
	}
	p.logger.Info("ingestion run finished", attrs...)
}

func (p *Pipeline) notify(ctx context.Context, report domain.RunReport) {
	if p.notifier == nil || report.TotalFiltered() == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(report)); err != nil {
		p.logger.Warn("publish digest", "error", err)
	}
}

func buildDigestMessage(report domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new regulatory articles pending review\n", report.TotalFiltered())

	for _, res := range report.Results {
		if len(res.Admitted) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", res.Source, len(res.Admitted))
		for _, a := range res.Admitted {
			fmt.Fprintf(&b, "- [%s] %s\n", a.Relevance, a.Title)
			if len(a.Categories) > 0 {
				fmt.Fprintf(&b, "  %s\n", strings.Join(a.Categories, ", "))
			}
			fmt.Fprintf(&b, "  %s\n", a.ArticleURL)
		}
	}
	return b.String()
}
