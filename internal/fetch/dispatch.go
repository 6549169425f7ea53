package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultPoolSize is the number of concurrent fetch slots in a batch.
const DefaultPoolSize = 5

// RawResult carries one fetch outcome out of a batch dispatch. Index is the
// position of the request in the submitted slice; exactly one of Resp and
// Err is set.
type RawResult struct {
	Index int
	Resp  *Response
	Err   error
}

// Pool runs batches of fetches over a fixed number of concurrent slots.
// A Pool holds no per-batch state and may be reused or shared.
type Pool struct {
	size int
}

// NewPool returns a pool with the given number of slots. Non-positive sizes
// fall back to DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{size: size}
}

// Size reports the number of concurrent slots.
func (p *Pool) Size() int { return p.size }

// Dispatch starts fetching every request and returns a channel that yields
// results in completion order, not submission order. Pairing is positional:
// fetchers[i] serves reqs[i], and the result for that pair carries Index i.
//
// At most Size fetches run at once. The channel is buffered to hold every
// result, so workers never block on send and a caller that stops receiving
// leaks nothing; in-flight fetches simply finish and their results are
// dropped when the channel is collected. The channel is closed after the
// last fetch completes.
//
// Fetch failures do not cancel sibling fetches. Each failure is delivered
// as a RawResult with Err set, and the caller decides whether the batch
// continues to matter. Cancel ctx to abort in-flight fetches early.
func (p *Pool) Dispatch(ctx context.Context, fetchers []*Fetcher, reqs []Request) (<-chan RawResult, error) {
	if len(fetchers) != len(reqs) {
		return nil, ErrLengthMismatch
	}

	results := make(chan RawResult, len(reqs))

	// Submission happens off the calling goroutine because Go blocks once
	// the slot limit is reached; Dispatch itself returns immediately.
	go func() {
		var g errgroup.Group
		g.SetLimit(p.size)
		for i := range reqs {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results <- RawResult{Index: i, Err: err}
					return nil
				}
				resp, err := fetchers[i].Fetch(ctx, reqs[i])
				// Errors ride inside results rather than failing the group,
				// so one bad fetch never tears down its siblings.
				results <- RawResult{Index: i, Resp: resp, Err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	return results, nil
}
