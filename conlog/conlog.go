// SPDX-License-Identifier: GPL-2.0-or-later

package conlog

import (
	"log"
)

var (
	p         func(string, ...interface{}) = log.Printf
	sp        func(string, ...interface{}) = log.Printf
	developer bool
)

func SetPrintf(f func(string, ...interface{})) {
	p = f
}
func SetSavePrintf(f func(string, ...interface{})) {
	sp = f
}

// SetDeveloper enables DPrintf output.
func SetDeveloper(b bool) {
	developer = b
}

func Printf(format string, v ...interface{}) {
	p(format, v...)
}

func SafePrintf(format string, v ...interface{}) {
	sp(format, v...)
}

// DPrintf prints only in developer mode.
func DPrintf(format string, v ...interface{}) {
	if !developer {
		return
	}
	p(format, v...)
}
