// Package fetch retrieves Craigslist pages and turns them into parsed,
// filtered documents.
//
// # Architecture
//
// The package is built from four cooperating pieces:
//
//   - Fetcher: one HTTP GET with bounded retry and exponential backoff
//   - Pool: a fixed set of slots that runs many fetches concurrently and
//     reports results in completion order
//   - Engine: the caller-facing coordinator that resolves single versus
//     batched input, owns the connection context, parses bodies through the
//     document filter, and streams documents back
//   - Client: the connection context, a configured HTTP client holding
//     pooled connections and cookies
//
// Control flow: Engine.Documents resolves the Source once, fetches either
// directly (single URL) or through a Pool (many URLs), parses each body with
// the filter spec, and delivers results on a channel as the underlying
// fetches complete.
//
// # Retry behavior
//
// Each fetch performs up to RetryPolicy.MaxAttempts attempts with a 5 second
// per-attempt timeout. Network failures, timeouts, and retryable statuses
// (429 and 5xx by default) are absorbed and retried with exponentially
// growing, jittered delays. Other statuses fail immediately. When every
// attempt is consumed the fetch reports a *MaxAttemptsError, which the
// Engine translates into ErrNetworkExhausted at its boundary.
//
// Design decision: Result channels are buffered to the batch size because:
//  1. Workers never block on send, so abandoning a consuming loop cannot
//     leak goroutines; in-flight fetches finish and their results are dropped
//  2. The consumer still blocks only when no completed result is ready,
//     preserving completion-order streaming
//  3. There is no need for a cancellation handshake between consumer and
//     workers; plain context cancellation aborts in-flight requests
//
// # Usage
//
//	engine := fetch.New(fetch.WithPoolSize(5))
//	results, err := engine.Documents(ctx, fetch.Batch(urls, nil))
//	if err != nil {
//		return err
//	}
//	for res := range results {
//		if res.Err != nil {
//			return res.Err
//		}
//		use(res.Doc)
//	}
//
// The result sequence is finite and cannot be restarted; call Documents
// again for another run.
package fetch
