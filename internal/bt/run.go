package bt

import (
	"context"
	"errors"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
)

// errTickLimit stops the ticker once the configured number of ticks ran.
var errTickLimit = errors.New("bt: tick limit reached")

type runOptions struct {
	maxTicks      int
	stopOnFailure bool
}

// RunOption configures Run.
type RunOption func(*runOptions)

// WithMaxTicks stops the loop after n ticks. n <= 0 means no limit.
func WithMaxTicks(n int) RunOption {
	return func(o *runOptions) { o.maxTicks = n }
}

// WithStopOnFailure stops the loop, without error, the first time the node
// reports bt.Failure.
func WithStopOnFailure() RunOption {
	return func(o *runOptions) { o.stopOnFailure = true }
}

// Run ticks node every interval until ctx is done, the node returns an error,
// or a limit set through opts is reached. Reaching a limit is not an error;
// cancellation of ctx is reported as ctx.Err().
func Run(ctx context.Context, interval time.Duration, node bt.Node, opts ...RunOption) error {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxTicks > 0 {
		var count int
		node = bt.New(func(children []bt.Node) (bt.Status, error) {
			status, err := children[0].Tick()
			if err != nil {
				return status, err
			}
			count++
			if count >= o.maxTicks {
				return status, errTickLimit
			}
			return status, nil
		}, node)
	}

	var ticker bt.Ticker
	if o.stopOnFailure {
		ticker = bt.NewTickerStopOnFailure(ctx, interval, node)
	} else {
		ticker = bt.NewTicker(ctx, interval, node)
	}
	<-ticker.Done()

	if err := ticker.Err(); err != nil && !errors.Is(err, errTickLimit) {
		return err
	}
	return nil
}
