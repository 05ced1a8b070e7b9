//go:build !linux

package main

import "runtime"

// Core Audio and the fyne driver both expect to be driven from the main
// thread.
func init() {
	runtime.LockOSThread()
}
