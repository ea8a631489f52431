// Package codec centralizes JSON serialization and timestamp formatting
// for bridge payloads.
//
// Every payload that crosses the bridge is JSON text, and every timestamp
// in those payloads is a string in UTC ISO-8601 form with millisecond
// precision ("2026-01-02T15:04:05.123Z"), matching what the embedded UI
// runtime produces. Keeping both in one place stops drift between the
// resolver, the monitor reports, and the loopback backend.
package codec

import (
	"time"

	"github.com/bytedance/sonic"
)

// StampLayout renders as RFC 3339 with milliseconds; UTC prints the
// offset as a literal Z.
const StampLayout = "2006-01-02T15:04:05.000Z07:00"

// Marshal serializes v to JSON bytes
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// MarshalString serializes v to its canonical JSON text form
func MarshalString(v interface{}) (string, error) {
	return sonic.MarshalString(v)
}

// Unmarshal parses JSON bytes into v
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

// UnmarshalString parses JSON text into v
func UnmarshalString(data string, v interface{}) error {
	return sonic.UnmarshalString(data, v)
}

// Stamp formats t as a bridge timestamp string
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// Now returns the current time as a bridge timestamp string
func Now() string {
	return Stamp(time.Now())
}

// ParseStamp parses a bridge timestamp string
func ParseStamp(s string) (time.Time, error) {
	return time.Parse(StampLayout, s)
}
