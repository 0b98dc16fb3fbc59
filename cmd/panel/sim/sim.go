// Simulator: same menu with terminal as display and keyboard.
package sim

import (
	"context"

	"github.com/temoto/panel/cmd/panel/run"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/internal/state"
)

var Mod = subcmd.Mod{
	Name:  "sim",
	Usage: "menu in terminal: arrows, Enter, Esc/Backspace, q quits; use -log to keep screen clean",
	Main:  Main,
}

func Main(ctx context.Context, config *state.Config) error {
	Override(config)
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	t := g.Term()
	go t.Run(g.Alive)
	return run.Loop(ctx, g)
}

// Override replaces hardware config with terminal display and keyboard.
func Override(config *state.Config) {
	config.Hardware.Display.Driver = state.DisplayTerm
	config.Hardware.Input.Gpio.Enable = false
	config.Hardware.Input.Ladder.Enable = false
	config.Hardware.Input.DevInputEvent.Enable = false
}
