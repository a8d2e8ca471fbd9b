// Package fanout runs independent lookups concurrently under a fixed ceiling
// while handing results back in input order.
package fanout

import (
	"context"
	"iter"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"
)

// DefaultLimit bounds simultaneous store round trips, and with them pool checkouts.
const DefaultLimit = 10

// Ordered calls fn once per input with at most limit calls in flight and
// yields the results in the order of inputs, not completion. A failed
// element is yielded at its own position. Nothing starts until the sequence
// is iterated.
//
// When the consumer stops early, queued calls that have not started are
// dropped; calls already running are left to finish and waited for.
func Ordered[In, Out any](ctx context.Context, inputs []In, limit int, fn func(context.Context, In) (Out, error)) iter.Seq2[Out, error] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return func(yield func(Out, error) bool) {
		if len(inputs) == 0 {
			return
		}

		logger := zerolog.Ctx(ctx)
		queueCtx, dropQueued := context.WithCancel(ctx)
		pool := pond.NewResultPool[Out](limit, pond.WithContext(queueCtx))
		defer func() {
			dropQueued()
			pool.StopAndWait()
		}()

		results := make([]pond.Result[Out], len(inputs))
		for i, in := range inputs {
			results[i] = pool.SubmitErr(func() (Out, error) {
				// Calls run on the caller's context so dropping the queue
				// never interrupts a round trip already in flight.
				return fn(ctx, in)
			})
		}
		logger.Debug().Int("tasks", len(inputs)).Int("limit", limit).Msg("fan-out started")

		for i, res := range results {
			out, err := res.Wait()
			if err != nil {
				logger.Debug().Err(err).Int("index", i).Msg("fan-out element failed")
			}
			if !yield(out, err) {
				return
			}
		}
	}
}
