// Package window tracks open windows and turns their visual transitions
// into lifecycle events.
//
// The Registry is the only writer of window records. It builds windows
// through an injected Factory, wires the window manager's callbacks to
// record mutations, and emits lifecycle payloads (opened, active,
// minimized, restored, closed) into a Sink. Titles act as a reuse key:
// opening an already-open title restores and focuses the existing window
// instead of creating a duplicate.
//
// Two timing mechanisms keep the emission stream clean: focus events are
// debounced for 120 ms so refocus churn collapses to a single active
// event, and an identical (window, event) pair repeated inside 250 ms is
// suppressed at the producer. Per-window timers are tracked and cancelled
// the moment the window closes, so no timer ever fires for a record that
// no longer exists.
package window
