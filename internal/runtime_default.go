//go:build !wasm

package internal

import (
	"github.com/petermattis/goid"
)

const checksGoroutine = true

func currentGoroutine() int64 {
	return goid.Get()
}
