package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"codeberg.org/snonux/wortschatz/internal/audio"
	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/generate"
	"codeberg.org/snonux/wortschatz/internal/queue"
	"codeberg.org/snonux/wortschatz/internal/store"
)

// Config tunes the worker pool.
type Config struct {
	// Concurrency is the number of consumer goroutines.
	Concurrency int
	// BatchSize is how many messages one receive may lease. One is the
	// expected and safe configuration.
	BatchSize int
	// Lease is the visibility window requested per message. External calls
	// are bounded by StageTimeout, which must stay well below it so a hung
	// call ends in redelivery instead of a double-leased message.
	Lease time.Duration
	// StageTimeout bounds each external call in the pipeline.
	StageTimeout time.Duration
	// PollInterval is the idle delay between receive attempts.
	PollInterval time.Duration
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:  2,
		BatchSize:    1,
		Lease:        5 * time.Minute,
		StageTimeout: 60 * time.Second,
		PollInterval: time.Second,
	}
}

// Worker runs the enrichment pipeline against the work queue.
type Worker struct {
	queue  queue.Queue
	store  *store.Store
	gen    generate.Generator
	synth  audio.Synthesizer
	blobs  blob.Store
	log    *zap.SugaredLogger
	config Config
}

// New creates a worker pool. A nil logger disables logging.
func New(q queue.Queue, st *store.Store, gen generate.Generator, synth audio.Synthesizer, blobs blob.Store, log *zap.SugaredLogger, config Config) *Worker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.Lease <= 0 {
		config.Lease = DefaultConfig().Lease
	}
	if config.StageTimeout <= 0 || config.StageTimeout > config.Lease/2 {
		config.StageTimeout = config.Lease / 4
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Worker{
		queue:  q,
		store:  st,
		gen:    gen,
		synth:  synth,
		blobs:  blobs,
		log:    log.With("component", "worker"),
		config: config,
	}
}

// Run starts the consumer pool and blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.log.Infow("starting worker pool", "concurrency", w.config.Concurrency, "batch", w.config.BatchSize)

	var wg sync.WaitGroup
	for i := 0; i < w.config.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.runLoop(ctx, id)
		}(i + 1)
	}
	wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, id int) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("worker loop stopped", "worker_id", id)
			return
		case <-ticker.C:
			msgs, err := w.queue.Receive(ctx, w.config.BatchSize, w.config.Lease)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Warnw("receive failed", "worker_id", id, "error", err)
				}
				continue
			}
			w.ProcessBatch(ctx, msgs)
		}
	}
}

// ProcessBatch handles each message independently: success and terminal
// failures delete the message, transient failures leave it leased. One
// failing message never blocks acknowledging its batch mates.
func (w *Worker) ProcessBatch(ctx context.Context, msgs []queue.Message) {
	for _, msg := range msgs {
		ack := w.processOne(ctx, msg)
		if !ack {
			continue
		}
		if err := w.queue.Delete(ctx, msg.ID); err != nil {
			// The lease will expire and the idempotent upsert absorbs the
			// redelivery.
			w.log.Warnw("failed to acknowledge message", "message_id", msg.ID, "error", err)
		}
	}
}

// processOne runs the pipeline for one message and reports whether the
// message should be acknowledged.
func (w *Worker) processOne(ctx context.Context, msg queue.Message) (ack bool) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorw("panic while processing message", "message_id", msg.ID, "panic", r)
			ack = false
		}
	}()

	req, err := entry.DecodeRequest(msg.Body)
	if err != nil {
		// A request that cannot be decoded can never succeed; deleting it
		// avoids endless redelivery. The failure stays visible in the log.
		w.log.Errorw("dropping undecodable request", "message_id", msg.ID, "error", err)
		return true
	}

	log := w.log.With("owner", req.OwnerID, "query", req.Query)

	if err := w.enrich(ctx, req, log); err != nil {
		log.Warnw("enrichment failed, leaving for redelivery", "error", err)
		return false
	}
	return true
}

// enrich runs preference resolution, generation, synthesis and persistence
// for one request. Only errors that warrant redelivery are returned.
func (w *Worker) enrich(ctx context.Context, req entry.EnrichmentRequest, log *zap.SugaredLogger) error {
	prefs := w.resolvePreferences(ctx, req)

	genCtx, cancel := context.WithTimeout(ctx, w.config.StageTimeout)
	result, err := w.gen.Generate(genCtx, req.Query, prefs)
	cancel()
	if err != nil {
		return fmt.Errorf("content generation: %w", err)
	}

	e := &entry.LanguageEntry{
		OwnerID:     req.OwnerID,
		Query:       req.Query,
		Definition:  result.Definition,
		Translation: result.Translation,
		Examples:    result.Examples,
	}

	// Synthesis is non-fatal: the entry persists without audio and the
	// submitter re-enqueues the query on the next submit because the entry
	// is not complete. A nil synthesizer disables audio entirely.
	if w.synth != nil {
		if key, err := w.synthesize(ctx, req.OwnerID, req.Query); err != nil {
			log.Warnw("word audio skipped", "error", err)
		} else {
			e.AudioKey = key
		}
		if len(e.Examples) > 0 {
			if key, err := w.synthesize(ctx, req.OwnerID, e.Examples[0].Text); err != nil {
				log.Warnw("example audio skipped", "error", err)
			} else {
				e.Examples[0].AudioKey = key
			}
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, w.config.StageTimeout)
	err = w.store.Upsert(storeCtx, e)
	cancel()
	if err != nil {
		// Store failures are always retriable: anything else risks losing
		// the generated content.
		return fmt.Errorf("persistence: %w", err)
	}

	log.Infow("entry persisted", "entry_id", e.ID, "audio", e.AudioKey != "")
	return nil
}

func (w *Worker) resolvePreferences(ctx context.Context, req entry.EnrichmentRequest) entry.UserPreferences {
	if req.Level != "" {
		return entry.UserPreferences{UserID: req.OwnerID, Level: req.Level, Context: req.Context}
	}

	prefCtx, cancel := context.WithTimeout(ctx, w.config.StageTimeout)
	defer cancel()

	prefs, err := w.store.GetPreferences(prefCtx, req.OwnerID)
	if err != nil {
		return entry.DefaultPreferences(req.OwnerID)
	}
	return prefs
}

// synthesize produces audio for text and stores it under its deterministic
// key. Both the synthesis and the blob write degrade to "no audio" rather
// than failing the item; the entry-level recovery policy covers them.
func (w *Worker) synthesize(ctx context.Context, ownerID, text string) (string, error) {
	synthCtx, cancel := context.WithTimeout(ctx, w.config.StageTimeout)
	defer cancel()

	data, err := w.synth.Synthesize(synthCtx, text)
	if err != nil {
		return "", err
	}

	key := audio.Key(ownerID, text)
	if err := w.blobs.Put(synthCtx, key, data, "audio/mpeg"); err != nil {
		return "", &audio.SynthesisError{Err: err}
	}
	return key, nil
}
