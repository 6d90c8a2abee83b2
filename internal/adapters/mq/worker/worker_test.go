package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/resonance/internal/adapters/mq/queue"
	worker "github.com/okian/resonance/internal/adapters/mq/worker"
	model "github.com/okian/resonance/internal/domain/model"
	logging "github.com/okian/resonance/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 128)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(id string, weights ...float64) {
	mq.jobs <- model.BlendCandidate{ID: id, Weights: weights}
}

// sumEvaluator scores a candidate as the sum of its weights.
type sumEvaluator struct {
	errors map[string]error
	mu     sync.RWMutex
}

func newSumEvaluator() *sumEvaluator {
	return &sumEvaluator{errors: make(map[string]error)}
}

func (e *sumEvaluator) Evaluate(ctx context.Context, c queue.Job) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err, ok := e.errors[c.ID]; ok {
		return 0, err
	}
	s := 0.0
	for _, w := range c.Weights {
		s += w
	}
	return s, nil
}

func (e *sumEvaluator) setError(id string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors[id] = err
}

type mockUpdater struct {
	scores map[string]float64
	errors map[string]error
	mu     sync.RWMutex
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{
		scores: make(map[string]float64),
		errors: make(map[string]error),
	}
}

func (u *mockUpdater) UpdateBest(ctx context.Context, c queue.Job, score float64) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err, ok := u.errors[c.ID]; ok {
		return false, err
	}
	u.scores[c.ID] = score
	return true, nil
}

func (u *mockUpdater) setError(id string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors[id] = err
}

func (u *mockUpdater) get(id string) (float64, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s, ok := u.scores[id]
	return s, ok
}

func (u *mockUpdater) count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.scores)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		evaluator := newSumEvaluator()
		updater := newMockUpdater()
		w := worker.NewInMemoryWorker(q, evaluator, updater, worker.WithName("test-worker"))

		convey.Convey("When it drains a closed queue", func() {
			q.add("c1", 0.5, 0.25)
			q.add("c2", 0.1)
			_ = q.Close()

			w.Run(context.Background())

			convey.Convey("Then every candidate should be recorded", func() {
				s, ok := updater.get("c1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(s, convey.ShouldEqual, 0.75)
				convey.So(w.Processed(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When evaluation fails", func() {
			evaluator.setError("bad", errors.New("evaluation error"))
			q.add("bad", 1)
			q.add("good", 1)
			_ = q.Close()

			w.Run(context.Background())

			convey.Convey("Then the failed candidate is skipped and the rest processed", func() {
				_, ok := updater.get("bad")
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = updater.get("good")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(w.Processed(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the update fails", func() {
			updater.setError("c3", errors.New("update error"))
			q.add("c3", 1)
			_ = q.Close()

			w.Run(context.Background())

			convey.Convey("Then nothing should be stored", func() {
				_, ok := updater.get("c3")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down a running worker", func() {
			go w.Run(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it should stop gracefully and tolerate a second call", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run should return", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		evaluator := newSumEvaluator()
		updater := newMockUpdater()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, evaluator, updater)

			convey.Convey("Then it should default to at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When many producers feed four workers", func() {
			pool := worker.NewPool(4, q, evaluator, updater)
			pool.Start(context.Background())

			const producers, perProducer = 5, 20
			var wg sync.WaitGroup
			for i := 0; i < producers; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < perProducer; j++ {
						q.add(fmt.Sprintf("c-%d-%d", p, j), float64(j))
					}
				}(i)
			}
			wg.Wait()
			_ = q.Close()
			pool.Wait()

			convey.Convey("Then every candidate should be processed exactly once", func() {
				convey.So(updater.count(), convey.ShouldEqual, producers*perProducer)
				convey.So(pool.Processed(), convey.ShouldEqual, producers*perProducer)
			})
		})

		convey.Convey("When shutting down", func() {
			pool := worker.NewPool(2, q, evaluator, updater)
			pool.Start(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := pool.Shutdown(ctx)
			pool.Wait()

			convey.Convey("Then it should close the queue and stop cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
				_, open := <-q.jobs
				convey.So(open, convey.ShouldBeFalse)
			})
		})
	})
}
