// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"github.com/pkg/errors"
)

var (
	ErrBadMagic      = errors.New("not a compiled scene")
	ErrBadVersion    = errors.New("unsupported compiled scene version")
	ErrTruncated     = errors.New("compiled scene is truncated")
	ErrBadString     = errors.New("string pool index out of range")
	ErrBadEventType  = errors.New("unknown event type")
	ErrStringPool    = errors.New("string pool is full")
	ErrTooMany       = errors.New("too many entries for the compiled format")
	ErrTagMismatch   = errors.New("playback and original tags do not match")
	ErrNotGesture    = errors.New("event is not a gesture")
	ErrTrailingBytes = errors.New("unexpected data after compiled scene")
)
