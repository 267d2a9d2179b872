package safe

import (
	"github.com/Araz9999/naxtap-sub005/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving handler
// cannot crash the gateway process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}

// Call invokes f synchronously, converting a panic into a logged recovery.
// Returns true if f completed without panicking.
func Call(f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[safe.Call] panic recovered: %v", r)
			ok = false
		}
	}()
	f()
	return true
}
