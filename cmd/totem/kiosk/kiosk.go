// Main, patient facing mode of operation.
// Screens are drawn by external front-end, this process logs every View it would receive.
package kiosk

import (
	"context"

	"github.com/coreos/go-systemd/daemon"
	"github.com/hpcguemes/totem/cmd/totem/subcmd"
	"github.com/hpcguemes/totem/internal/state"
	"github.com/hpcguemes/totem/internal/ui"
	"github.com/hpcguemes/totem/log2"
	"github.com/juju/errors"
)

var Mod = subcmd.Mod{Name: "kiosk", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	kiosk := ui.UI{}
	if err := kiosk.Init(ctx, NewLogRenderer(g.Log)); err != nil {
		return errors.Annotate(err, "ui Init()")
	}

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("kiosk init complete")

	kiosk.Loop(ctx)
	g.Alive.Wait()
	return nil
}

type LogRenderer struct {
	log *log2.Log
}

func NewLogRenderer(log *log2.Log) *LogRenderer { return &LogRenderer{log: log} }

// Render never logs patient document or name.
func (self *LogRenderer) Render(v ui.View) {
	p := v.Props
	self.log.Infof("render screen=%s session=%s flow=%s busy=%t floor=%s notice=%q input_error=%q",
		v.Screen.String(), p.ID, p.Flow.String(), p.Busy, p.SelectedFloor, p.Notice.Text, p.InputError)
}
