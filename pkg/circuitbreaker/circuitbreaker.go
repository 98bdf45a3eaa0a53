package circuitbreaker

import "github.com/sony/gobreaker"

var (
	// MaxNumOfFailingRequests is how many calls must have been observed
	// before the breaker is allowed to open.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the failure ratio at which the breaker opens.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns the breaker guarding base-ledger lookups. It
// opens once more than MaxNumOfFailingRequests calls were seen and at
// least FailingRatio of them failed; while open, anchor resolutions fail
// immediately instead of waiting out HTTP timeouts against an unreachable
// explorer.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ledger",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}
