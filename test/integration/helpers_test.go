//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/test/fixtures"
)

// observingOverlay records which devices were floating while each break ran.
type observingOverlay struct {
	x *fixtures.FakeXInput

	mu         sync.Mutex
	floating   [][]int
	durations  []time.Duration
	launchFail bool
	block      bool
	started    chan struct{}
}

func newObservingOverlay(x *fixtures.FakeXInput) *observingOverlay {
	return &observingOverlay{x: x, started: make(chan struct{}, 16)}
}

func (o *observingOverlay) RunOverlay(ctx context.Context, d time.Duration, opts domain.OverlayOptions) error {
	o.mu.Lock()
	o.floating = append(o.floating, o.x.Floating())
	o.durations = append(o.durations, d)
	fail, block := o.launchFail, o.block
	o.mu.Unlock()

	o.started <- struct{}{}
	if fail {
		return domain.ErrOverlayLaunchFailed
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (o *observingOverlay) Terminate() error { return nil }

func (o *observingOverlay) Floating() [][]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][]int(nil), o.floating...)
}

func (o *observingOverlay) Durations() []time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Duration(nil), o.durations...)
}

// instantSleep returns immediately unless ctx is done.
func instantSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// eventLines reads the event log as (kind, duration, cycle) triples.
func eventLines(path string) [][3]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out [][3]string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			continue
		}
		out = append(out, [3]string{fields[1], fields[2], fields[3]})
	}
	return out
}
