// Production mode: menu on configured display and buttons.
package run

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/internal/panel"
	"github.com/temoto/panel/internal/state"
)

const stopTimeout = 5 * time.Second

var Mod = subcmd.Mod{Name: "run", Usage: "menu on configured hardware", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)
	return Loop(ctx, g)
}

// Loop runs menu until g.Alive is stopped or signal.
func Loop(ctx context.Context, g *state.Global) error {
	u, err := panel.NewUI(g)
	if err != nil {
		return err
	}
	p, err := panel.New(g, u)
	if err != nil {
		return err
	}
	menu, err := p.Build()
	if err != nil {
		return errors.Annotate(err, "menu")
	}
	if err = p.ApplyStored(); err != nil {
		g.Error(err, "apply stored settings")
	}
	g.Tele.SetCommandFunc(p.OnCommand)

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Infof("panel init complete")

	ctx = subcmd.StopContext(ctx, g.Alive)
	err = p.Run(ctx, menu)
	if ctx.Err() != nil {
		g.Log.Infof("panel stopping")
		if !g.StopWait(stopTimeout) {
			g.Log.Errorf("stop timeout=%v", stopTimeout)
		}
		return nil
	}
	return err
}
