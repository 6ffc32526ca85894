//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// gracefulSignals returns the OS signals that end the watch loop.
func gracefulSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
