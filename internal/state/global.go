package state

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hpcguemes/totem/helpers"
	"github.com/hpcguemes/totem/internal/input"
	"github.com/hpcguemes/totem/internal/remote"
	"github.com/hpcguemes/totem/log2"
	tele_api "github.com/hpcguemes/totem/tele"
	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Clock        clockwork.Clock
	Config       *Config
	Input        *input.Dispatch
	Log          *log2.Log
	Remote       remote.Client
	Tele         tele_api.Teler

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
// Remote, Clock and Input already set (tests, console) are kept.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)

	// Since tele is remote error reporting mechanism, it must be inited before anything else
	g.Config.Tele.BuildVersion = g.BuildVersion
	// Tele.Init gets g.Log clone before SetErrorFunc, so Tele.Log.Error doesn't recurse on itself
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Tele); err != nil {
		g.Tele = tele_api.Noop{}
		return errors.Annotate(err, "tele init")
	}
	g.Log.SetErrorFunc(g.Tele.Error)

	if g.BuildVersion == "unknown" {
		g.Error(fmt.Errorf("build version is not set, please use script/build"))
	} else if g.Config.Tele.Enabled && strings.HasSuffix(g.BuildVersion, "-dirty") {
		g.Error(fmt.Errorf("running development build with uncommited changes, bad idea for production"))
	}

	if g.Clock == nil {
		g.Clock = clockwork.NewRealClock()
	}

	errs := make([]error, 0, 2)
	if err := g.initRemote(); err != nil {
		errs = append(errs, err)
	}
	if err := g.initInput(); err != nil {
		errs = append(errs, err)
	}
	return helpers.FoldErrors(errs)
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}

func (g *Global) initRemote() error {
	if g.Remote != nil {
		return nil
	}
	client, err := remote.NewHTTPClient(g.Config.Remote, g.Log, nil)
	if err != nil {
		return errors.Annotate(err, "remote init")
	}
	g.Remote = client
	return nil
}

// initInput starts input dispatch. Sources failing to open are reported,
// kiosk still works with on-screen actions.
func (g *Global) initInput() error {
	if g.Input == nil {
		g.Input = input.NewDispatch(g.Log, g.Alive.StopChan())
	}
	sources := make([]input.Source, 0, 1)
	var err error
	if cfg := g.Config.Input.DevInputEvent; cfg.Enable {
		var src *input.DevInputEventSource
		if src, err = input.NewDevInputEventSource(cfg.Device); err != nil {
			err = errors.Annotate(err, "input init")
		} else {
			sources = append(sources, src)
		}
	}
	go g.Input.Run(sources)
	return err
}
