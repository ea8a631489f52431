// Package wsbridge connects the shell to an out-of-process runtime over
// WebSocket. Outbound report operations travel as call envelopes; the
// runtime pushes event envelopes back, which either drive the bridge
// connection callbacks or fan out as runtime notifications.
package wsbridge
