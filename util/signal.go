package util

import (
	"os"
	"os/signal"
	"syscall"
)

// TrapSignalTerm blocks until SIGINT or SIGTERM arrives and then calls cb
// with the signal that fired.
func TrapSignalTerm(cb func(sig os.Signal)) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	cb(sig)
}
