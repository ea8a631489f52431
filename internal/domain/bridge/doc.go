/*
Package bridge resolves and dispatches backend calls over an unreliable
function-call channel.

# Overview

The backend may expose its entry points under a different casing
convention than the caller's logical operation name, and the generic
call primitive may not exist yet during early startup. The resolver
tries an ordered list of name spellings against the gateway's direct
bindings, then falls back to the generic invoker, and only reports
false when nothing at all could be dispatched. Callers (the lifecycle
queue, the connection monitor) own retry.

# Components

  - Gateway: injected backend surface (direct bindings + optional invoker)
  - NameStrategy: one name spelling; order is data, not code
  - Resolver: serialize, resolve, dispatch, record outcome
  - Dispatch: future for asynchronous invoker calls, single completion
  - Recorder: outcome sink implemented by the connection monitor

# Failure Model

A direct binding that returns an error or panics has its failure
recorded and surfaced through diagnostics, never raised to the caller;
the call returns false so periodic callers retry it, and it never falls
through to the invoker. Asynchronous invoker failures resolve the
Dispatch and land in the same counters.

# Example Usage

	resolver := bridge.NewResolver(gw, bridge.ResolverOptions{
	    Logger: logger,
	    Mute:   []string{"ws_heartbeat"},
	})
	resolver.SetRecorder(monitor)

	if !resolver.Call("log_window_lifecycle", payload) {
	    // nothing dispatched; keep it queued
	}
*/
package bridge
