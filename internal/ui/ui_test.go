package ui_test

import (
	"context"
	"testing"
	"time"

	"github.com/temoto/panel/hardware/display"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/internal/ui"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
)

// step either delivers event or runs check between events
type step struct {
	ev    types.Event
	check func()
}

type script struct {
	steps []step
	pos   int
}

func (self *script) PollEvent() (types.Event, bool) {
	for self.pos < len(self.steps) {
		s := self.steps[self.pos]
		self.pos++
		if s.check != nil {
			s.check()
			continue
		}
		return s.ev, true
	}
	return types.Event{}, false
}

func (self *script) done() bool { return self.pos >= len(self.steps) }

type tenv struct {
	ctx     context.Context
	ui      *ui.UI
	display *display.Display
	script  *script
	idle    int
}

// newEnv cancels ctx when script is exhausted
func newEnv(t testing.TB, steps ...step) *tenv {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	env := &tenv{
		ctx:     ctx,
		display: display.NewMock(),
		script:  &script{steps: steps},
	}
	env.ui = &ui.UI{
		Display: env.display,
		Events:  env.script,
		Log:     log2.NewTest(t, log2.LDebug),
		Tele:    tele_api.NewStub(),
		Idle: func() {
			env.idle++
			if env.script.done() {
				cancel()
			}
		},
	}
	return env
}

func ev(b types.ButtonID, p types.Phase) step { return step{ev: types.Event{Button: b, Phase: p}} }
func push(b types.ButtonID) step              { return ev(b, types.PhasePushed) }
func repeat(b types.ButtonID) step            { return ev(b, types.PhaseRepeated) }
func check(f func()) step                     { return step{check: f} }

func repeatN(s step, n int) []step {
	ss := make([]step, n)
	for i := range ss {
		ss[i] = s
	}
	return ss
}

func noopCommand(context.Context) error { return nil }

func commands(labels ...string) []ui.Item {
	items := make([]ui.Item, len(labels))
	for i, l := range labels {
		items[i] = ui.Command(l, noopCommand)
	}
	return items
}

func mustMenu(t testing.TB, tables []ui.Table, root ui.TableID) *ui.Menu {
	m, err := ui.NewMenu(tables, root)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
