/*
Package resilience provides a circuit breaker for the bridge transport.

# Overview

The REST gateway sends fire-and-forget bridge calls to a backend that may
be down for long stretches. The breaker stops those calls from piling up
retries against a dead endpoint: after repeated failures it fails fast,
then periodically lets a probe request through to detect recovery. The
connection monitor treats a fast-failing transport as unreachable, so the
breaker state feeds straight into the heartbeat's probe result.

# Usage

	breaker := resilience.New("bridge-rest", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Info("Breaker state change", zap.String("from", from.String()))
		},
	})

	err := breaker.Do(func() error {
		return client.Post(payload)
	})

# States

  - Closed: normal operation, requests pass through
  - Open: backend unavailable, requests fail immediately
  - Half-Open: testing recovery, limited requests allowed

# Pattern

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
