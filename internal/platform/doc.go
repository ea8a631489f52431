// Package platform adapts the embedder's runtime surface into the
// explicit ports the domain packages consume: connectivity signals and
// reachability probes for the connection monitor, startup inputs for
// port resolution, a named notification broadcaster for inbound backend
// messages, and a headless window factory for display-less runs.
package platform
