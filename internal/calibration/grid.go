package calibration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/resonance/internal/adapters/mq/queue"
	"github.com/okian/resonance/internal/adapters/mq/worker"
	"github.com/okian/resonance/internal/adapters/repository"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/pkg/logger"
	"gonum.org/v1/gonum/floats"
)

// gridResult is the outcome of a blend search. modelRanks holds, per family,
// the rank of the blend that puts all weight on that family.
type gridResult struct {
	best       Blend
	top        []Blend
	evaluated  int
	modelRanks []int
	throughput float64
}

// blendEvaluator scores a weight vector by the R² of the weighted sum of
// held-out predictions.
type blendEvaluator struct {
	predictions [][]float64
	truth       []float64
}

func (e *blendEvaluator) Evaluate(_ context.Context, c model.BlendCandidate) (float64, error) {
	if len(c.Weights) != len(e.predictions) {
		return 0, fmt.Errorf("%w: candidate %s has %d weights for %d models",
			regress.ErrShapeMismatch, c.ID, len(c.Weights), len(e.predictions))
	}
	blend := make([]float64, len(e.truth))
	for i, w := range c.Weights {
		if w != 0 {
			floats.AddScaled(blend, w, e.predictions[i])
		}
	}
	return regress.R2(e.truth, blend), nil
}

// Compositions enumerates every way to split units into parts non-negative
// integers, in lexicographic order.
func Compositions(units, parts int) [][]int {
	var out [][]int
	cur := make([]int, parts)
	var walk func(pos, left int)
	walk = func(pos, left int) {
		if pos == parts-1 {
			cur[pos] = left
			out = append(out, append([]int(nil), cur...))
			return
		}
		for u := 0; u <= left; u++ {
			cur[pos] = u
			walk(pos+1, left-u)
		}
	}
	if parts > 0 && units >= 0 {
		walk(0, units)
	}
	return out
}

// candidate turns a composition into weights summing to one. The id encodes
// the units so ties rank deterministically.
func candidate(comp []int, units int) model.BlendCandidate {
	ids := make([]string, len(comp))
	weights := make([]float64, len(comp))
	for i, u := range comp {
		ids[i] = fmt.Sprintf("%03d", u)
		weights[i] = float64(u) / float64(units)
	}
	return model.BlendCandidate{ID: "w-" + strings.Join(ids, "-"), Weights: weights}
}

// searchBlends evaluates every composition through the queue, worker pool and
// ranked store.
func (c *Calibrator) searchBlends(ctx context.Context, units int, predictions [][]float64, truth []float64) (*gridResult, error) {
	comps := Compositions(units, len(predictions))

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(comps)))
	store := repository.NewTreapStore()
	pool := worker.NewPool(c.workers, q, &blendEvaluator{predictions: predictions, truth: truth}, store)

	for _, comp := range comps {
		if !q.Enqueue(ctx, candidate(comp, units)) {
			_ = q.Close()
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("grid search cancelled: %w", err)
			}
			return nil, errors.New("grid search: candidate rejected by queue")
		}
	}
	if err := q.Close(); err != nil {
		return nil, fmt.Errorf("close grid queue: %w", err)
	}

	c.log.Info(ctx, "grid search started",
		logger.Int("candidates", len(comps)),
		logger.Int("workers", pool.Size()),
		logger.Float64("step", c.step),
	)
	start := time.Now()
	pool.Start(ctx)
	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn(ctx, "grid workers did not stop", logger.Error(err))
		}
		<-done
		return nil, fmt.Errorf("grid search cancelled: %w", ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("grid search cancelled: %w", err)
	}
	elapsed := time.Since(start)

	processed := pool.Processed()
	if processed != int64(len(comps)) {
		return nil, fmt.Errorf("grid search: %d of %d candidates evaluated", processed, len(comps))
	}
	evaluated := store.Count(ctx)
	if evaluated == 0 {
		return nil, errors.New("grid search: no candidate evaluated")
	}
	entries, err := store.TopN(ctx, c.topN)
	if err != nil {
		return nil, fmt.Errorf("grid search top candidates: %w", err)
	}

	modelRanks := make([]int, len(predictions))
	for i := range predictions {
		pure := make([]int, len(predictions))
		pure[i] = units
		e, err := store.Rank(ctx, candidate(pure, units).ID)
		if err != nil {
			return nil, fmt.Errorf("grid search rank of %s: %w", ModelNames[i], err)
		}
		modelRanks[i] = e.Rank
	}

	res := &gridResult{
		evaluated:  evaluated,
		top:        make([]Blend, len(entries)),
		modelRanks: modelRanks,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.throughput = float64(processed) / secs
	}
	for i, e := range entries {
		res.top[i] = Blend{Rank: e.Rank, Weights: weightMap(e.Weights), R2: e.Score}
	}
	res.best = res.top[0]

	if sum := floats.Sum(entries[0].Weights); sum < 1-WeightTolerance || sum > 1+WeightTolerance {
		return nil, fmt.Errorf("grid search: best weights sum to %v", sum)
	}
	return res, nil
}

func weightMap(w []float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for i, name := range ModelNames {
		if i < len(w) {
			out[name] = w[i]
		}
	}
	return out
}
