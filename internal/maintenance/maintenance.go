// Package maintenance tracks the process-wide maintenance flag.
// Reads are lock-free; the flag is not persisted (see DESIGN.md's
// open-question decision on maintenance flag durability).
package maintenance

import "sync/atomic"

// Flag is a process-wide atomically toggled maintenance switch.
type Flag struct {
	enabled atomic.Bool
	message atomic.Value // string
}

// New returns a Flag initialized from the configured startup state.
func New(enabled bool, message string) *Flag {
	f := &Flag{}
	f.enabled.Store(enabled)
	f.message.Store(message)
	return f
}

// Enabled reports whether maintenance mode is currently active.
func (f *Flag) Enabled() bool { return f.enabled.Load() }

// Message returns the configured message shown to rejected callers.
func (f *Flag) Message() string {
	if v, ok := f.message.Load().(string); ok {
		return v
	}
	return ""
}

// Set toggles the flag and updates the message atomically with it.
func (f *Flag) Set(enabled bool, message string) {
	f.message.Store(message)
	f.enabled.Store(enabled)
}
