// Package modelcache holds fitted models for the lifetime of the process and
// guarantees a key is trained at most once at a time.
package modelcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/training"
	"github.com/okian/resonance/pkg/logger"
	"github.com/okian/resonance/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// ProcessKey is the single key used when one model serves the whole process.
const ProcessKey = "process"

const (
	fingerprintDecimals = 2 // rounding applied before fingerprinting a vector
	defaultTrainTimeout = 2 * time.Minute
	retrainPrefix       = "retrain:"
)

// TrainFunc produces a fitted model.
type TrainFunc func(ctx context.Context) (*training.FittedModel, error)

// node is an entry in the insertion-order list (head is newest).
type node struct {
	key  string
	next *node
}

// entry is a cached model tagged with the generation of the run that
// produced it.
type entry struct {
	model *training.FittedModel
	gen   uint64
}

// Cache maps keys to fitted models. Concurrent first callers for a key share
// a single training run; later callers read the cached model.
type Cache struct {
	mu      sync.RWMutex
	models  map[string]entry
	head    *node
	maxSize int

	group        singleflight.Group
	gen          atomic.Uint64
	trainings    atomic.Int64
	trainTimeout time.Duration
	log          logger.Logger
}

// New creates a Cache. The default is bounded at 64 models.
func New(opts ...Option) *Cache {
	c := &Cache{
		models:       make(map[string]entry),
		maxSize:      64,
		trainTimeout: defaultTrainTimeout,
		log:          logger.Get().Named("modelcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached model for key.
func (c *Cache) Get(key string) (*training.FittedModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.models[key]
	return e.model, ok
}

// GetOrTrain returns the cached model for key, training it with fn on a miss.
// While a training run for key is in flight, other callers wait for and
// share its result. The run is detached from every caller's cancellation: a
// caller whose ctx ends stops waiting, the run itself continues for the
// others.
func (c *Cache) GetOrTrain(ctx context.Context, key string, fn TrainFunc) (*training.FittedModel, error) {
	if m, ok := c.Get(key); ok {
		metrics.RecordModelCacheHit()
		return m, nil
	}
	metrics.RecordModelCacheMiss()

	m, shared, err := c.await(ctx, key, func() (interface{}, error) {
		if m, ok := c.Get(key); ok {
			return m, nil
		}
		return c.train(ctx, key, fn)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug(ctx, "shared in-flight training", logger.String("key", key))
	}
	return m, nil
}

// Retrain trains a fresh model for key and replaces any cached one. The
// previous model stays readable until the new one is stored. A retrain never
// joins a first training run in flight for key, and that run cannot
// overwrite the retrained model when it finishes later.
func (c *Cache) Retrain(ctx context.Context, key string, fn TrainFunc) (*training.FittedModel, error) {
	m, _, err := c.await(ctx, retrainPrefix+key, func() (interface{}, error) {
		return c.train(ctx, key, fn)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordModelCacheRetrain()
	c.log.Info(ctx, "model retrained", logger.String("key", key), logger.String("model_id", m.ID))
	return m, nil
}

// await runs fn as the flight for key, or joins the one in progress, and
// waits for it or for ctx, whichever ends first.
func (c *Cache) await(ctx context.Context, key string, fn func() (interface{}, error)) (*training.FittedModel, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("await model %q: %w", key, err)
	}
	select {
	case res := <-c.group.DoChan(key, fn):
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*training.FittedModel), res.Shared, nil
	case <-ctx.Done():
		return nil, false, fmt.Errorf("await model %q: %w", key, ctx.Err())
	}
}

// Invalidate drops the model for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
	metrics.UpdateModelCacheSize(len(c.models))
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Trainings returns how many training runs the cache has started.
func (c *Cache) Trainings() int64 {
	return c.trainings.Load()
}

// train runs fn detached from the caller's cancellation, bounded by the
// training timeout, and stores the result.
func (c *Cache) train(ctx context.Context, key string, fn TrainFunc) (*training.FittedModel, error) {
	gen := c.gen.Add(1)
	c.trainings.Add(1)

	runCtx := context.WithoutCancel(ctx)
	if c.trainTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.trainTimeout)
		defer cancel()
	}

	m, err := fn(runCtx)
	if err != nil {
		c.log.Error(ctx, "training failed", logger.String("key", key), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTrainerFailed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil model for key %q", ErrTrainerFailed, key)
	}
	return c.put(key, m, gen), nil
}

// put stores m unless a run started later already stored its model, and
// returns whichever model the cache holds for key afterwards.
func (c *Cache) put(key string, m *training.FittedModel, gen uint64) *training.FittedModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.models[key]; exists {
		if e.gen > gen {
			return e.model
		}
		c.models[key] = entry{model: m, gen: gen}
		return m
	}
	if c.maxSize > 0 && len(c.models) >= c.maxSize {
		c.evictOldest()
	}
	c.head = &node{key: key, next: c.head}
	c.models[key] = entry{model: m, gen: gen}
	metrics.UpdateModelCacheSize(len(c.models))
	return m
}

// evictOldest removes the tail of the list. Must be called with c.mu held.
func (c *Cache) evictOldest() {
	if c.head == nil {
		return
	}
	if c.head.next == nil {
		delete(c.models, c.head.key)
		c.head = nil
		return
	}
	prev := c.head
	for prev.next.next != nil {
		prev = prev.next
	}
	delete(c.models, prev.next.key)
	prev.next = nil
}

// remove unlinks key. Must be called with c.mu held.
func (c *Cache) remove(key string) {
	if _, ok := c.models[key]; !ok {
		return
	}
	delete(c.models, key)
	if c.head != nil && c.head.key == key {
		c.head = c.head.next
		return
	}
	for cur := c.head; cur != nil && cur.next != nil; cur = cur.next {
		if cur.next.key == key {
			cur.next = cur.next.next
			return
		}
	}
}

// Fingerprint derives a stable key from v rounded to two decimals, so nearby
// queries share a model.
func Fingerprint(v model.FeatureVector) string {
	scale := math.Pow(10, fingerprintDecimals)
	buf := make([]byte, 0, 8*len(v))
	for _, x := range v {
		r := math.Round(x*scale) / scale
		if r == 0 {
			r = 0 // folds -0 into +0
		}
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(r))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, buf).String()
}
