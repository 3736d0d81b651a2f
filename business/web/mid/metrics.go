package mid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/treeledger/blockchain/business/sys/metrics"
	"github.com/treeledger/blockchain/foundation/web"
)

// Metrics updates program counters. Errors are rendered by an outer
// middleware, so a failed request is recorded with the code "error".
func Metrics() web.Middleware {
	metrics.Init()

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			v, verr := web.GetValues(ctx)
			if verr != nil {
				return err
			}

			code := strconv.Itoa(v.StatusCode)
			if err != nil {
				metrics.AddError()
				code = "error"
			}

			// Label by route pattern so block hashes don't explode the series.
			route := r.URL.Path
			if rd := httptreemux.ContextData(ctx); rd != nil {
				route = rd.Route()
			}

			metrics.AddRequest(r.Method, route, code, v.Now)

			return err
		}

		return h
	}

	return m
}
