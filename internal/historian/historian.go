// internal/historian/historian.go pops room action records from the Redis queue and
// stores them in batches.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/plagiarist/internal/cache"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBatchSize  = 20
	defaultFlushDelay = 500 * time.Millisecond
	retryDelay        = time.Second
	flushTimeout      = 10 * time.Second
)

// Sink stores a batch of records. database.Ledger implements it.
type Sink interface {
	InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error
}

// Config configures a Service. Zero values fall back to defaults.
type Config struct {
	Client     *redis.Client
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration // longest a record waits in memory before it is stored
	Sink       Sink
}

// Service drains the action queue into the Sink.
type Service struct {
	client     *redis.Client
	queue      string
	batchSize  int
	flushDelay time.Duration
	sink       Sink

	mu      sync.Mutex
	batch   []cache.GameActionRecord
	oldest  time.Time
	retryAt time.Time
	maxHeld int
}

func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("sink is required")
	}
	s := &Service{
		client:     cfg.Client,
		queue:      cfg.QueueName,
		batchSize:  cfg.BatchSize,
		flushDelay: cfg.FlushDelay,
		sink:       cfg.Sink,
	}
	if s.queue == "" {
		s.queue = cache.DefaultQueueName
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.flushDelay <= 0 {
		s.flushDelay = defaultFlushDelay
	}
	s.maxHeld = s.batchSize * 50
	return s, nil
}

// Run consumes the queue until ctx is cancelled, then stores whatever is still buffered.
func (s *Service) Run(ctx context.Context) error {
	log.Infof("Historian: consuming %s (batch %d, flush every %s)", s.queue, s.batchSize, s.flushDelay)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		s.flush(flushCtx)
		log.Info("Historian: stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		rec, err := cache.PopGameAction(ctx, s.client, s.queue, s.flushDelay)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, cache.ErrInvalidRecord):
			log.Warnf("Historian: skipping entry: %v", err)
		case errors.Is(err, redis.ErrClosed):
			return err
		case err != nil:
			log.Warnf("Historian: %v", err)
			if !sleep(ctx, retryDelay) {
				return nil
			}
		case rec != nil:
			s.add(*rec)
		}

		if s.due(time.Now()) {
			s.flush(ctx)
		}
	}
}

func (s *Service) add(rec cache.GameActionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batch) == 0 {
		s.oldest = time.Now()
	}
	s.batch = append(s.batch, rec)
}

// due reports whether the buffer is full or its oldest record has waited long enough.
// After a failed flush nothing is due until retryAt.
func (s *Service) due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batch) == 0 || now.Before(s.retryAt) {
		return false
	}
	return len(s.batch) >= s.batchSize || now.Sub(s.oldest) >= s.flushDelay
}

// flush hands the buffer to the sink. A failed batch is kept for the next attempt up to
// maxHeld records, beyond which the oldest are dropped.
func (s *Service) flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return
	}
	pending := s.batch
	s.batch = nil
	s.mu.Unlock()

	if err := s.sink.InsertGameActions(ctx, pending); err != nil {
		log.Errorf("Historian: failed to store %d actions: %v", len(pending), err)
		s.mu.Lock()
		s.batch = append(pending, s.batch...)
		if over := len(s.batch) - s.maxHeld; over > 0 {
			log.Warnf("Historian: dropping %d oldest actions", over)
			s.batch = s.batch[over:]
		}
		s.retryAt = time.Now().Add(retryDelay)
		s.mu.Unlock()
		return
	}
	log.Debugf("Historian: stored %d actions", len(pending))
}

// Buffered returns how many records are waiting to be stored.
func (s *Service) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batch)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
