package teamset

import (
	"context"
	"math/rand"
	"time"
)

// DelayFunc picks the pause taken before a query, given the configured
// ceiling.
type DelayFunc func(ceiling time.Duration) time.Duration

// ShuffleFunc reorders tables in place.
type ShuffleFunc func(tables []string)

// RandomDelay draws uniformly from [0, ceiling].
func RandomDelay(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

// NoDelay never pauses.
func NoDelay(time.Duration) time.Duration {
	return 0
}

// RandomShuffle permutes tables uniformly.
func RandomShuffle(tables []string) {
	rand.Shuffle(len(tables), func(i, j int) {
		tables[i], tables[j] = tables[j], tables[i]
	})
}

// KeepOrder leaves tables as discovered.
func KeepOrder([]string) {}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
