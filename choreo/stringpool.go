// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

// StringPool maps the strings of compiled scenes to 16 bit ids. Many scenes
// can share one pool.
type StringPool interface {
	// FindOrAddString returns the id of s, adding it if needed. A negative id
	// means the pool is full.
	FindOrAddString(s string) int16
	// GetString resolves an id.
	GetString(id int16) (string, bool)
}
