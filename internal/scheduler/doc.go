// Package scheduler runs query sessions concurrently in fixed-size batches.
//
// The scheduler partitions the query list into consecutive batches of the
// configured concurrency ceiling and runs each batch with errgroup. A batch
// must fully complete before the next one starts, so the number of live
// sessions (and therefore open browser pages) never exceeds the ceiling.
//
// Design decision: We use whole-batch joins rather than a streaming worker
// pool because:
// 1. The bound on simultaneously open pages is exact, not amortized
// 2. Batch boundaries are natural points to observe cancellation
// 3. Progress is easy to reason about: batch k finishes before k+1 starts
//
// The trade-off is idle capacity at the tail of each batch, which is
// acceptable because sessions against the same search endpoint tend to
// have similar durations.
package scheduler
