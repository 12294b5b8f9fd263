// SPDX-License-Identifier: GPL-2.0-or-later

package crc

import (
	"hash/crc32"
	"strings"
)

var ieeeTable = crc32.MakeTable(crc32.IEEE)

// Update returns the CRC32 of p. Compiled scenes store the CRC of their
// source text.
func Update(p []byte) uint32 {
	return crc32.Checksum(p, ieeeTable)
}

// Continue extends an existing CRC32 with p.
func Continue(c uint32, p []byte) uint32 {
	return crc32.Update(c, ieeeTable, p)
}

// NormalizeName lowercases a file name and turns backslashes into slashes so
// that lookups are independent of the authoring platform.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// Name returns the CRC32 of the normalized file name.
func Name(name string) uint32 {
	return Update([]byte(NormalizeName(name)))
}
