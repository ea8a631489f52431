// Package restbridge delivers bridge operations to an HTTP runtime.
// There is no push channel, so connection health comes entirely from
// polling: the monitor's reachability probes map to health checks here.
package restbridge
