package recordsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/api/airtable"
	"github.com/Alias1177/Guessometer/models"
)

// ErrClosed is returned by Close when called twice
var ErrClosed = errors.New("dispatcher closed")

// Mirror is the write side of the external record service
type Mirror interface {
	CreatePrediction(ctx context.Context, p models.Prediction) (*airtable.Record, error)
	UpdatePrediction(ctx context.Context, recordID string, upd models.PredictionUpdate) (*airtable.Record, error)
	DeletePrediction(ctx context.Context, recordID string) error
}

// Linker stores and resolves the external record id of a local prediction.
// LinkedAirtableID returns "" when the prediction is unlinked or gone.
type Linker interface {
	SetAirtableID(ctx context.Context, id, airtableID string) error
	LinkedAirtableID(ctx context.Context, id string) (string, error)
}

type jobKind int

const (
	jobCreate jobKind = iota
	jobUpdate
	jobDelete
)

func (k jobKind) String() string {
	switch k {
	case jobCreate:
		return "create"
	case jobUpdate:
		return "update"
	default:
		return "delete"
	}
}

type job struct {
	kind       jobKind
	prediction models.Prediction
	update     models.PredictionUpdate
}

// Options configures a Dispatcher
type Options struct {
	Workers    int
	QueueSize  int // per worker
	JobTimeout time.Duration
}

// tracked is the in-process view of one prediction with queued jobs
type tracked struct {
	pending    int
	airtableID string
	deleted    bool
}

// Dispatcher mirrors committed prediction mutations to the record service in the
// background. Enqueueing never blocks; a full queue drops the job. Jobs for the
// same prediction always run on the same worker in the order they were queued.
type Dispatcher struct {
	mirror  Mirror
	linker  Linker
	timeout time.Duration
	logger  zerolog.Logger

	shards []chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	stateMu sync.Mutex
	state   map[string]*tracked
}

// NewDispatcher starts the worker pool
func NewDispatcher(mirror Mirror, linker Linker, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		mirror:  mirror,
		linker:  linker,
		timeout: opts.JobTimeout,
		logger:  log.With().Str("component", "recordsync").Logger(),
		shards:  make([]chan job, opts.Workers),
		state:   make(map[string]*tracked),
	}

	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// PredictionCreated queues the creation of a mirror record
func (d *Dispatcher) PredictionCreated(p models.Prediction) {
	d.enqueue(job{kind: jobCreate, prediction: p})
}

// PredictionUpdated queues an update. The record id is resolved when the job runs.
func (d *Dispatcher) PredictionUpdated(p models.Prediction, upd models.PredictionUpdate) {
	d.enqueue(job{kind: jobUpdate, prediction: p, update: upd})
}

// PredictionDeleted queues a delete. A create for the same prediction that has
// not finished yet removes its mirror record instead of linking it.
func (d *Dispatcher) PredictionDeleted(p models.Prediction) {
	d.stateMu.Lock()
	d.track(p.ID).deleted = true
	d.stateMu.Unlock()

	d.enqueue(job{kind: jobDelete, prediction: p})
}

func (d *Dispatcher) shard(id string) chan job {
	return d.shards[xxhash.Sum64String(id)%uint64(len(d.shards))]
}

// track returns the entry for id, creating it. Callers hold stateMu.
func (d *Dispatcher) track(id string) *tracked {
	t, ok := d.state[id]
	if !ok {
		t = &tracked{}
		d.state[id] = t
	}
	return t
}

// release drops the entry once nothing is queued for it. Callers hold stateMu.
func (d *Dispatcher) release(id string) {
	if t, ok := d.state[id]; ok && t.pending == 0 {
		delete(d.state, id)
	}
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id := j.prediction.ID
	if d.closed {
		d.logger.Warn().Str("op", j.kind.String()).Str("prediction_id", id).Msg("Dispatcher closed, dropping sync job")
		d.stateMu.Lock()
		d.release(id)
		d.stateMu.Unlock()
		return
	}

	d.stateMu.Lock()
	d.track(id).pending++
	d.stateMu.Unlock()

	select {
	case d.shard(id) <- j:
	default:
		d.logger.Warn().Str("op", j.kind.String()).Str("prediction_id", id).Msg("Sync queue full, dropping job")
		d.finish(id)
	}
}

func (d *Dispatcher) finish(id string) {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if t, ok := d.state[id]; ok {
		t.pending--
	}
	d.release(id)
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to expire
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.run(j)
		d.finish(j.prediction.ID)
	}
}

// recordID finds the mirror record of a prediction: a create finished in this
// process first, then the id the job carried, then the store.
func (d *Dispatcher) recordID(ctx context.Context, p models.Prediction) (string, error) {
	d.stateMu.Lock()
	var known string
	if t, ok := d.state[p.ID]; ok {
		known = t.airtableID
	}
	d.stateMu.Unlock()

	switch {
	case known != "":
		return known, nil
	case p.AirtableID != nil && *p.AirtableID != "":
		return *p.AirtableID, nil
	default:
		return d.linker.LinkedAirtableID(ctx, p.ID)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	logger := d.logger.With().Str("op", j.kind.String()).Str("prediction_id", j.prediction.ID).Logger()

	switch j.kind {
	case jobCreate:
		rec, err := d.mirror.CreatePrediction(ctx, j.prediction)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to sync prediction")
			return
		}

		d.stateMu.Lock()
		t := d.track(j.prediction.ID)
		deleted := t.deleted
		if !deleted {
			t.airtableID = rec.ID
		}
		d.stateMu.Unlock()

		if deleted {
			if err := d.mirror.DeletePrediction(ctx, rec.ID); err != nil {
				logger.Error().Err(err).Str("airtable_id", rec.ID).Msg("Failed to remove record of deleted prediction")
				return
			}
			logger.Info().Str("airtable_id", rec.ID).Msg("Prediction deleted before sync, removed record")
			return
		}

		if err := d.linker.SetAirtableID(ctx, j.prediction.ID, rec.ID); err != nil {
			logger.Error().Err(err).Str("airtable_id", rec.ID).Msg("Failed to store Airtable id")
			return
		}
		logger.Info().Str("airtable_id", rec.ID).Msg("Synced prediction")

	case jobUpdate:
		recordID, err := d.recordID(ctx, j.prediction)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to resolve Airtable id")
			return
		}
		if recordID == "" {
			logger.Warn().Msg("Prediction has no Airtable record, skipping update")
			return
		}
		if _, err := d.mirror.UpdatePrediction(ctx, recordID, j.update); err != nil {
			logger.Error().Err(err).Msg("Failed to sync prediction update")
			return
		}
		logger.Debug().Str("airtable_id", recordID).Msg("Synced prediction update")

	case jobDelete:
		recordID, err := d.recordID(ctx, j.prediction)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to resolve Airtable id")
			return
		}
		if recordID == "" {
			// a create still queued removes its own record
			logger.Debug().Msg("Prediction has no Airtable record, nothing to delete")
			return
		}
		if err := d.mirror.DeletePrediction(ctx, recordID); err != nil {
			logger.Error().Err(err).Msg("Failed to sync prediction deletion")
			return
		}

		d.stateMu.Lock()
		if t, ok := d.state[j.prediction.ID]; ok {
			t.airtableID = ""
		}
		d.stateMu.Unlock()
		logger.Debug().Str("airtable_id", recordID).Msg("Synced prediction deletion")
	}
}
