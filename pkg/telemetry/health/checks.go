package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by the catalog and history stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the store unhealthy when Ping fails.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// RunningCheck reports name unhealthy while running returns false.
func RunningCheck(name string, running func() bool) CheckFunc {
	return func(context.Context) error {
		if !running() {
			return fmt.Errorf("%s is not running", name)
		}
		return nil
	}
}
