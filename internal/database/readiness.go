package database

import (
	"context"
	"sync/atomic"
	"time"

	"goa.design/clue/log"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness tracks whether the database answered its last ping. Monitor is
// the only writer; any number of handlers may read it.
type Readiness struct {
	ready atomic.Bool
}

func (r *Readiness) Ready() bool { return r.ready.Load() }

func (r *Readiness) set(ctx context.Context, ready bool) {
	if r.ready.Swap(ready) == ready {
		return
	}
	if ready {
		log.Info(ctx, log.KV{K: "msg", V: "database connected"})
	} else {
		log.Info(ctx, log.KV{K: "msg", V: "database unreachable"})
	}
}

// Monitor pings db immediately and then every interval until ctx ends.
func (r *Readiness) Monitor(ctx context.Context, db Pinger, interval time.Duration) {
	r.check(ctx, db, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.check(ctx, db, interval)
		}
	}
}

func (r *Readiness) check(ctx context.Context, db Pinger, timeout time.Duration) {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := db.Ping(pingCtx)
	if err != nil && ctx.Err() != nil {
		return
	}
	r.set(ctx, err == nil)
}
