package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"themetree/internal/logging"
)

// =============================================================================
// CONCURRENT BATCH RUNNER
// =============================================================================
//
// Runs N independent prompt cycles against one client with bounded
// concurrency. Two interchangeable strategies share one retry/ordering
// core:
//
//   - RunParallel: a fixed pool of workers, each running one task's
//     full retry loop to completion before taking the next.
//   - RunGated: one goroutine per task behind a counting semaphore that
//     admits at most N in flight; a task parks at the gate and at the
//     backoff sleep without holding a worker.
//
// Results come back in prompt order regardless of completion order:
// every task owns exactly one index of the pre-sized results slice, so
// no locking is needed around it. A task that exhausts its retries
// yields the empty string instead of failing the batch.

// Retry policy: 5 attempts per task, delay starts at 1s, doubles per
// attempt, capped at 60s.
const (
	maxAttempts  = 5
	initialDelay = time.Second
	maxDelay     = 60 * time.Second
)

// sleep is swapped out in tests.
var sleep = time.Sleep

// DefaultBatchWorkers bounds concurrency when the caller does not.
const DefaultBatchWorkers = 30

// BatchOptions configures one batch run.
type BatchOptions struct {
	// Workers bounds concurrent tasks; zero means DefaultBatchWorkers.
	Workers int

	// Params are forwarded to every Chat call.
	Params Params

	// Transforms run in order over each successful raw response.
	Transforms []func(string) string
}

// RunParallel executes the prompts on a fixed-size worker pool and
// returns the responses in prompt order. It blocks until every task
// has completed or exhausted its retries.
func RunParallel(ctx context.Context, client Client, prompts []string, systemPrompt string, opts BatchOptions) ([]string, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts list cannot be empty")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if workers > len(prompts) {
		workers = len(prompts)
	}

	logging.Batch("RunParallel: %d prompts, %d workers", len(prompts), workers)

	results := make([]string, len(prompts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = fetchWithRetry(ctx, client, idx, prompts[idx], systemPrompt, opts)
			}
		}()
	}

	for idx := range prompts {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// RunGated executes the prompts as one goroutine per task behind a
// weighted semaphore admitting at most Workers concurrently. Ordering
// and retry semantics are identical to RunParallel; only the
// scheduling substrate differs.
func RunGated(ctx context.Context, client Client, prompts []string, systemPrompt string, opts BatchOptions) ([]string, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts list cannot be empty")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	logging.Batch("RunGated: %d prompts, gate width %d", len(prompts), workers)

	results := make([]string, len(prompts))
	sem := semaphore.NewWeighted(int64(workers))

	var wg sync.WaitGroup
	for idx := range prompts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				logging.BatchError("prompt %d: gate acquire failed: %v", idx, err)
				return
			}
			defer sem.Release(1)
			results[idx] = fetchWithRetry(ctx, client, idx, prompts[idx], systemPrompt, opts)
		}(idx)
	}
	wg.Wait()

	return results, nil
}

// fetchWithRetry runs one task's full request/retry cycle. Any error
// from the client counts as a failed attempt; after the last attempt
// the degraded result is the empty string, never an error, so a single
// stuck prompt cannot abort the batch.
func fetchWithRetry(ctx context.Context, client Client, idx int, prompt, systemPrompt string, opts BatchOptions) string {
	messages := SystemUser(systemPrompt, prompt)

	delay := initialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		batchRequestsTotal.Inc()
		response, err := client.Chat(ctx, messages, opts.Params)
		if err == nil {
			for _, transform := range opts.Transforms {
				response = transform(response)
			}
			return response
		}

		lastErr = err
		logging.BatchWarn("attempt %d/%d failed for prompt %d: %v", attempt, maxAttempts, idx, err)
		batchRetriesTotal.Inc()

		sleep(delay)
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	logging.BatchError("failed to get response for prompt %d after %d attempts: %v", idx, maxAttempts, lastErr)
	batchExhaustedTotal.Inc()
	return ""
}
