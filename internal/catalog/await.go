package catalog

import (
	"context"

	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
)

// Result is the outcome of a call collected by Await.
type Result struct {
	Filters filter.Filters
	Items   []media.Media
	Changed bool
}

// Await starts a call and blocks until it is delivered or ctx is done. A
// done ctx cancels the call and yields a Cancelled error.
//
//	res, err := catalog.Await(ctx, func(cb catalog.Callback) *catalog.Handle {
//		return p.List(nil, f, cb)
//	})
func Await(ctx context.Context, start func(cb Callback) *Handle) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	out := make(chan outcome, 1)

	h := start(CallbackFuncs{
		Success: func(f filter.Filters, items []media.Media, changed bool) {
			out <- outcome{res: Result{Filters: f, Items: items, Changed: changed}}
		},
		Failure: func(err error) {
			out <- outcome{err: err}
		},
	})

	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Cancel()
		return Result{}, newError(Cancelled, "", "", ctx.Err())
	}

	select {
	case o := <-out:
		return o.res, o.err
	default:
		return Result{}, newError(Cancelled, "", "", nil)
	}
}
