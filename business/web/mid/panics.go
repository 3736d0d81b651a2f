package mid

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/treeledger/blockchain/business/sys/metrics"
	"github.com/treeledger/blockchain/foundation/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// reported in Metrics and handled in Errors.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {

		// Use the named return value err so the deferred function can set
		// the error value returned to the caller.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))

					metrics.AddPanic()
				}
			}()

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
