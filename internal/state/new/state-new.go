// Sorry, workaround to import cycles.
package state_new

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hpcguemes/totem/internal/remote"
	"github.com/hpcguemes/totem/internal/state"
	"github.com/hpcguemes/totem/log2"
	tele_api "github.com/hpcguemes/totem/tele"
	"github.com/jonboulle/clockwork"
	"github.com/temoto/alive/v2"
)

func NewContext(log *log2.Log, teler tele_api.Teler) (context.Context, *state.Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &state.Global{
		Alive: alive.NewAlive(),
		Log:   log,
		Tele:  teler,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, state.ContextKey, g)

	return ctx, g
}

// NewTestContext returns Global with scripted remote.Mock and fake clock.
// Set totem_test_log_stderr=1 to see log around panics.
func NewTestContext(t testing.TB, confString string) (context.Context, *state.Global, *remote.Mock, clockwork.FakeClock) {
	fs := state.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("totem_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log, tele_api.NewStub())
	g.BuildVersion = "test"
	mock := remote.NewMock()
	clock := clockwork.NewFakeClock()
	g.Remote = mock
	g.Clock = clock
	g.MustInit(ctx, state.MustReadConfig(log, fs, "test-inline"))
	t.Cleanup(func() { g.StopWait(5 * time.Second) })

	return ctx, g, mock, clock
}
