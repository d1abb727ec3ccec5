package triage

import (
	"context"
	"sync"
	"time"

	"photo-triage/internal/analysis"
	"photo-triage/internal/journal"
	"photo-triage/internal/logging"
	"photo-triage/internal/mediatypes"
	"photo-triage/internal/metrics"
	"photo-triage/internal/scanner"
	"photo-triage/internal/thumbcache"
)

var log = logging.Named("triage")

// State is the controller lifecycle state.
type State string

const (
	StateEmpty    State = "empty"
	StateScanning State = "scanning"
	StateReady    State = "ready"
)

// Config wires a Controller to its collaborators. Only Analyzer is
// required.
type Config struct {
	Options  Options
	Scanner  scanner.Config
	Analyzer analysis.Analyzer
	// Cache is cleared on reset and resized with CacheCapacity.
	Cache       *thumbcache.Cache
	Persistence Persistence
	Surface     Surface
	// Backpressure pauses analysis dispatch, normally the memory monitor.
	Backpressure     analysis.Backpressure
	ProgressInterval time.Duration
}

// Controller owns a triage session. Every command is executed on a single
// goroutine that is the only writer of the record set and journal; scan and
// analysis results reach it as messages. Methods are safe for concurrent
// use.
type Controller struct {
	cmds      chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	analyzer         analysis.Analyzer
	scanConfig       scanner.Config
	cache            *thumbcache.Cache
	store            Persistence
	persister        *persister
	surface          Surface
	backpressure     analysis.Backpressure
	progressInterval time.Duration

	// Owned by the loop goroutine.
	opts       Options
	state      State
	folder     string
	session    string
	gen        uint64
	records    *recordSet
	journal    *journal.Journal[decisionState]
	filter     Filter
	sortField  mediatypes.SortField
	visible    []string
	visibleOK  bool
	current    string
	selection  map[string]struct{}
	decided    map[string]struct{} // paths the curator changed this session
	prior      map[string]PartialRecord
	unmerged   map[string]analysis.Result
	scanCancel context.CancelFunc
	run        *analysis.Run
	bursts     int
	duplicates int
}

// New validates cfg.Options and starts the controller goroutine.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.Analyzer == nil {
		return nil, invalidOption("configure", "analyzer", "an analyzer is required")
	}
	if cfg.Scanner.BatchSize <= 0 {
		cfg.Scanner = scanner.DefaultConfig()
	}
	if cfg.Surface == nil {
		cfg.Surface = NopSurface{}
	}

	c := &Controller{
		cmds:             make(chan func()),
		quit:             make(chan struct{}),
		done:             make(chan struct{}),
		analyzer:         cfg.Analyzer,
		scanConfig:       cfg.Scanner,
		cache:            cfg.Cache,
		store:            cfg.Persistence,
		surface:          cfg.Surface,
		backpressure:     cfg.Backpressure,
		progressInterval: cfg.ProgressInterval,
		opts:             cfg.Options,
		state:            StateEmpty,
		records:          newRecordSet(),
		journal:          journal.New[decisionState](),
		sortField:        mediatypes.SortByInsertion,
		selection:        make(map[string]struct{}),
		decided:          make(map[string]struct{}),
		unmerged:         make(map[string]analysis.Result),
	}
	if cfg.Persistence != nil {
		c.persister = newPersister(cfg.Persistence)
	}
	go c.loop()
	return c, nil
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.cmds:
			fn()
		case <-c.quit:
			c.stopWork()
			return
		}
	}
}

// do runs fn on the controller goroutine and returns its error.
func (c *Controller) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.cmds <- func() { errc <- fn() }:
	case <-c.quit:
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-c.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrClosed
		}
	}
}

// post delivers a message from a worker goroutine. It is dropped once the
// controller is closed.
func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.quit:
	}
}

// Close cancels running work, stops the controller and flushes pending
// writes.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.done
		if c.persister != nil {
			c.persister.close()
		}
	})
	return nil
}

// Ping returns ErrClosed once the controller has stopped serving commands.
func (c *Controller) Ping() error {
	return c.do(func() error { return nil })
}

// Flush waits until every decision issued so far has been handed to the
// persistence store.
func (c *Controller) Flush() {
	if c.persister != nil {
		c.persister.flush()
	}
}

func (c *Controller) stopWork() {
	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}
	if c.run != nil {
		c.run.Cancel()
		c.run = nil
	}
}

// reset drops the session: in-flight work is cancelled and its late events
// become stale, then records, selection, journal and cache are cleared.
func (c *Controller) reset() {
	c.stopWork()
	c.gen++
	c.records = newRecordSet()
	c.journal.Clear()
	clear(c.selection)
	clear(c.decided)
	c.current = ""
	c.prior = nil
	c.unmerged = make(map[string]analysis.Result)
	c.bursts, c.duplicates = 0, 0
	c.invalidateVisible()
	if c.cache != nil {
		c.cache.Clear()
	}
}

// stale reports whether an event from generation gen belongs to a replaced
// session.
func (c *Controller) stale(gen uint64) bool {
	if gen != c.gen {
		metrics.StaleEventsDiscarded.Inc()
		return true
	}
	return false
}

// SessionStats implements metrics.StatsProvider. It returns zero stats once
// the controller is closed.
func (c *Controller) SessionStats() metrics.Stats {
	var s metrics.Stats
	_ = c.do(func() error {
		s = c.sessionStats()
		return nil
	})
	if c.cache != nil {
		s.CacheSize = c.cache.Len()
	}
	return s
}

func (c *Controller) sessionStats() metrics.Stats {
	s := metrics.Stats{
		BurstGroups: c.bursts,
		Duplicates:  c.duplicates,
		UndoDepth:   c.journal.UndoDepth(),
		RedoDepth:   c.journal.RedoDepth(),
	}
	c.records.each(func(r *ImageRecord) {
		switch r.Status {
		case StatusKeep:
			s.Keep++
		case StatusReject:
			s.Reject++
		default:
			s.Pending++
		}
	})
	return s
}

func (c *Controller) persist(r *ImageRecord) {
	if c.persister == nil {
		return
	}
	rec := PartialRecord{Status: r.Status, Rating: r.Rating, Color: r.Color}
	if r.IsManual {
		c.persister.save(r.Path, rec)
	} else {
		c.persister.forget(r.Path, rec)
	}
}
