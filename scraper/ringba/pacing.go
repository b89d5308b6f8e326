package ringba

import (
	"context"
	"math/rand"
	"time"
)

// humanDelay sleeps for a random duration between min and max. Fixed-interval
// actions are an automation tell; jittered pacing between browser
// interactions keeps the session looking interactive.
func humanDelay(ctx context.Context, min, max time.Duration) {
	d := min + time.Duration(rand.Int63n(int64(max-min)+1))
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
