package usecase

import "time"

const (
	// DefaultStaleTime is how long fetched transactions are served without refetching.
	DefaultStaleTime = 5 * time.Minute

	// DefaultQueryRetries is how many times a failed transaction fetch is retried.
	DefaultQueryRetries = 1

	// DefaultRetryDelay is the initial wait before retrying a fetch.
	DefaultRetryDelay = time.Second

	// DefaultFetchTimeout bounds a shared transaction fetch, retries included.
	DefaultFetchTimeout = 30 * time.Second

	// HealthStaleTime is how long a health check result is reused.
	HealthStaleTime = time.Minute

	// HealthRetries is how many times a failed health check is retried.
	HealthRetries = 3

	// HealthCheckTimeout bounds a shared health check, retries included.
	HealthCheckTimeout = 30 * time.Second
)
