package middleware

import "github.com/aretw0/easel/pkg/ports"

// Middleware allows wrapping a TransferLedger to add behavior.
type Middleware func(ports.TransferLedger) ports.TransferLedger

// Chain wraps l so the first middleware is the outermost.
func Chain(l ports.TransferLedger, mws ...Middleware) ports.TransferLedger {
	for i := len(mws) - 1; i >= 0; i-- {
		l = mws[i](l)
	}
	return l
}
