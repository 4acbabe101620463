//go:build wasm

package internal

// single goroutine runtime, ownership is not checked
const checksGoroutine = false

func currentGoroutine() int64 {
	return 0
}
