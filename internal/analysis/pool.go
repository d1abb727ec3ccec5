package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"photo-triage/internal/logging"
	"photo-triage/internal/metrics"
	"photo-triage/internal/workers"
)

var log = logging.Named("analysis")

// DefaultProgressInterval bounds how often progress events are emitted.
const DefaultProgressInterval = 250 * time.Millisecond

// Backpressure pauses dispatch, normally a *memory.Monitor. WaitIfPaused
// returns false when dispatch should stop.
type Backpressure interface {
	WaitIfPaused(ctx context.Context) bool
}

// PoolConfig configures a Pool
type PoolConfig struct {
	// Budget is the maximum number of concurrent analyses (0 = one per CPU)
	Budget int
	// ProgressInterval is the minimum time between progress events
	ProgressInterval time.Duration
	// Backpressure is consulted before each item starts
	Backpressure Backpressure
	// Buffer is the capacity of the event channel (0 = 2 x Budget)
	Buffer int
}

// Result is the outcome of analysing one path.
type Result struct {
	Path     string
	Score    int
	Signals  Signals
	Err      error
	Duration time.Duration
}

// Progress reports how far a run has come.
type Progress struct {
	Completed int
	Total     int
	ETA       time.Duration
}

// String renders the progress the way the status bar shows it.
func (p Progress) String() string {
	eta := p.ETA.Round(time.Second)
	return fmt.Sprintf("%d/%d EST: %dm %ds Left", p.Completed, p.Total, int(eta.Minutes()), int(eta.Seconds())%60)
}

// Summary closes a run. Every input path is accounted for exactly once:
// Completed + Failed + len(NotStarted) == Total.
type Summary struct {
	Total      int
	Completed  int
	Failed     int
	NotStarted []string
	Cancelled  bool
	Duration   time.Duration
}

// Event is delivered on Run.Events. Exactly one field is set; the Summary
// event is always last.
type Event struct {
	Result   *Result
	Progress *Progress
	Summary  *Summary
}

// Pool runs an Analyzer over batches of paths.
type Pool struct {
	analyzer Analyzer
	config   PoolConfig
}

// NewPool creates a pool. The budget is resolved through workers.Budget so
// WORKER_BUDGET applies.
func NewPool(analyzer Analyzer, config PoolConfig) *Pool {
	config.Budget = workers.Budget(config.Budget)
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = DefaultProgressInterval
	}
	if config.Buffer <= 0 {
		config.Buffer = 2 * config.Budget
	}
	return &Pool{analyzer: analyzer, config: config}
}

// Budget returns the resolved concurrency budget.
func (p *Pool) Budget() int {
	return p.config.Budget
}

// Run is one analysis pass.
type Run struct {
	events chan Event
	cancel context.CancelFunc

	mu        sync.Mutex
	completed int
	failed    int
	total     int
	eta       *etaEstimator
	progress  rate.Sometimes
}

// Start analyses paths in the background. Cancelling ctx or calling
// Run.Cancel stops dispatch. The caller must drain Events until it closes.
func (p *Pool) Start(ctx context.Context, paths []string) *Run {
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		events:   make(chan Event, p.config.Buffer),
		cancel:   cancel,
		total:    len(paths),
		eta:      newETAEstimator(time.Now()),
		progress: rate.Sometimes{Interval: p.config.ProgressInterval},
	}
	go p.dispatch(ctx, r, append([]string(nil), paths...))
	return r
}

// Events returns the run's event stream.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Cancel stops dispatch of items that have not started.
func (r *Run) Cancel() {
	r.cancel()
}

func (p *Pool) dispatch(ctx context.Context, r *Run, paths []string) {
	defer close(r.events)
	defer r.cancel()

	start := time.Now()
	sem := semaphore.NewWeighted(int64(p.config.Budget))
	// in-flight items finish even after cancellation
	workCtx := context.WithoutCancel(ctx)
	metrics.AnalysisBudget.Set(float64(p.config.Budget))
	log.Info("Analysing %d photos with budget %d", len(paths), p.config.Budget)

	var wg sync.WaitGroup
	started := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if p.config.Backpressure != nil && !p.config.Backpressure.WaitIfPaused(ctx) {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// Acquire may succeed on an already cancelled context
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}

		started++
		wg.Add(1)
		metrics.AnalysisInFlight.Inc()
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			defer metrics.AnalysisInFlight.Dec()
			p.deliver(r, p.analyze(workCtx, path))
		}(path)
	}
	cancelled := ctx.Err() != nil
	wg.Wait()

	notStarted := paths[started:]
	metrics.AnalysisItemsTotal.WithLabelValues("not_started").Add(float64(len(notStarted)))

	r.mu.Lock()
	final := Progress{Completed: r.completed + r.failed, Total: r.total}
	summary := Summary{
		Total:      r.total,
		Completed:  r.completed,
		Failed:     r.failed,
		NotStarted: notStarted,
		Cancelled:  cancelled,
		Duration:   time.Since(start),
	}
	r.mu.Unlock()

	log.Info("Analysis finished: %d completed, %d failed, %d not started in %v",
		summary.Completed, summary.Failed, len(notStarted), summary.Duration)

	r.events <- Event{Progress: &final}
	r.events <- Event{Summary: &summary}
}

func (p *Pool) analyze(ctx context.Context, path string) Result {
	start := time.Now()
	signals, err := p.analyzer.Analyze(ctx, path)
	res := Result{Path: path, Duration: time.Since(start)}
	metrics.AnalysisDuration.Observe(res.Duration.Seconds())

	if err != nil {
		res.Err = err
		metrics.AnalysisItemsTotal.WithLabelValues("failed").Inc()
		log.Warn("Skipping %s: %v", path, err)
		return res
	}
	res.Signals = signals
	res.Score = Score(signals)
	metrics.AnalysisItemsTotal.WithLabelValues("completed").Inc()
	return res
}

func (p *Pool) deliver(r *Run, res Result) {
	var progress *Progress

	r.mu.Lock()
	if res.Err != nil {
		r.failed++
	} else {
		r.completed++
	}
	done := r.completed + r.failed
	r.eta.observe(time.Now())
	r.progress.Do(func() {
		progress = &Progress{Completed: done, Total: r.total, ETA: r.eta.estimate(r.total - done)}
	})
	r.mu.Unlock()

	r.events <- Event{Result: &res}
	if progress != nil {
		r.events <- Event{Progress: progress}
	}
}
