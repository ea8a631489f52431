// Package connection owns the bridge connection state machine.
//
// The Monitor tracks exactly one current state (initializing, connected,
// disconnected, reconnecting, bridge_missing, error), a bounded history
// of accepted transitions, and accumulated health counters. A 1.5 second
// heartbeat probes reachability and pushes a report on every tick; runtime
// signals (online/offline, bridge connect/disconnect events, port updates)
// drive transitions between ticks.
//
// State machine rules:
//   - initializing is the only start state
//   - any state is reachable from any other; same-state transitions are
//     no-ops and never recorded
//   - reconnect attempts grow on every reachability loss and reset only
//     when a recovery signal lands the machine back in connected
//   - a failed event registration means error, without counting as a
//     reconnect attempt
//
// Every accepted transition synchronously appends to history, pushes a
// ws_state_change report through the resolver, and wakes the diagnostics
// surface. The monitor is the sole writer of its state; everything else
// reads copies via Snapshot.
package connection
