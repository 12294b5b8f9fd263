// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"github.com/chewxy/math32"
)

const (
	Pi = math32.Pi
)

// SimpleSpline is the hermite basis 3v^2 - 2v^3, an ease in / ease out
// over [0,1].
func SimpleSpline(v float32) float32 {
	sq := v * v
	return 3*sq - 2*sq*v
}

// ExponentialDecay returns the factor that remains of a value decaying to
// decayTo over decayTime after dt has elapsed.
func ExponentialDecay(decayTo, decayTime, dt float32) float32 {
	return math32.Exp(math32.Log(decayTo) / decayTime * dt)
}

// QuantizeUnit maps v in [0,1] onto 0..255, rounding to nearest.
func QuantizeUnit(v float32) uint8 {
	return uint8(Clamp(0, v, 1)*255 + 0.5)
}

// DequantizeUnit is the inverse of QuantizeUnit.
func DequantizeUnit(b uint8) float32 {
	return float32(b) / 255
}
