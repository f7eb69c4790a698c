package usecase

import "time"

// SetQueryClock replaces the clock used for staleness checks.
func SetQueryClock(q *TransactionQuery, now func() time.Time) {
	q.now = now
}

// SetHealthClock replaces the clock used for health result caching.
func SetHealthClock(h *HealthQuery, now func() time.Time) {
	h.now = now
}
