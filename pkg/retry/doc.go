// Package retry provides retry logic with configurable backoff for remote
// dataset requests.
//
// The mirror sync talks to a third-party hosting API that throttles and
// occasionally serves 5xx responses; bounded retries with exponential
// backoff ride those out without turning a transient failure into a
// skipped batch.
//
// Usage:
//
//	cfg := retry.DefaultConfig()
//	cfg.MaxAttempts = 3
//
//	err := retry.Do(func() error {
//	    return client.Ping()
//	}, cfg)
//
//	batches, err := retry.DoWithResult(func() ([]RemoteBatch, error) {
//	    return client.ListBatches(ctx)
//	}, cfg)
//
// Whether an error is retried is decided by Config.RetryIf; the default
// predicate consults the error taxonomy in decensor/pkg/errors, so
// malformed data and lookup misses are never retried while network
// failures and retryable HTTP statuses are.
package retry
