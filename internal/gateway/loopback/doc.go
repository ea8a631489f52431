// Package loopback provides the in-process gateway: a function table
// implementing both the direct-callable registry and the generic invoker,
// plus a stub backend that registers the report handlers a real backend
// would expose. Together they let the shell run and be tested with no
// external process, while still exercising every resolution path the
// real transports use.
package loopback
