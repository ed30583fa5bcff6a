// Package goroutine запускает фоновые горутины с перехватом panic:
// упавшая фоновая задача логируется, а не роняет процесс.
package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/antonkudrin/profi-backend/internal/logger"
)

// SafeGo запускает fn в горутине с перехватом panic.
func SafeGo(fn func()) {
	go func() {
		defer logRecover()
		fn()
	}()
}

// SafeGoWithContext запускает fn с контекстом и перехватом panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer logRecover()
		fn(ctx)
	}()
}

func logRecover() {
	if r := recover(); r != nil {
		logger.Log.WithFields(map[string]interface{}{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("Паника в фоновой горутине")
	}
}
