package state

import (
	"context"
	"os"
	"testing"

	"github.com/temoto/panel/helpers/atomic_clock"
	"github.com/temoto/panel/internal/settings"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
)

// NewTestContext returns Global with mock display, stub telemetry,
// in-memory settings and manual clock starting at zero.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("panel_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log, tele_api.NewStub())
	g.BuildVersion = "test"
	g.Clock = atomic_clock.New(0)
	g.Settings = settings.New(0)
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))
	return ctx, g
}

// TestClock returns manual clock installed by NewTestContext.
func (g *Global) TestClock() *atomic_clock.Clock {
	return g.Clock.(*atomic_clock.Clock)
}
