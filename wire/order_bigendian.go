// SPDX-License-Identifier: GPL-2.0-or-later

//go:build choreo_bigendian

package wire

import (
	"encoding/binary"
)

// Order is the byte order of compiled scene data.
var Order binary.ByteOrder = binary.BigEndian
