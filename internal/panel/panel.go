// Package panel builds menu tables from config and binds their commands
// and toggles to persisted settings, display and telemetry.
package panel

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/panel/hardware/display"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/internal/state"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/internal/ui"
	ui_config "github.com/temoto/panel/internal/ui/config"
	tele_api "github.com/temoto/panel/tele"
)

const (
	KindMain = "main"
	KindSub  = "sub"
	BackSelf = "self"

	CommandAbout         = "about"
	CommandSettingsReset = "settings.reset"
	prefixSlider         = "slider."
	prefixFloatSlider    = "float_slider."

	ApplyDisplayContrast = "display.contrast"

	// DefaultCommandHold is press duration of telemetry injected button without hold_ms.
	DefaultCommandHold = 100 * time.Millisecond

	MsgIdle = "Press Select"
)

// ApplyFunc is live preview hook of slider value.
type ApplyFunc func(v float64) error

type Panel struct {
	g       *state.Global
	ui      *ui.UI
	display *display.Display
	config  *ui_config.Config
	applies map[string]ApplyFunc
}

// NewUI wires display, button events and telemetry of g.
func NewUI(g *state.Global) (*ui.UI, error) {
	d, err := g.Display()
	if err != nil {
		return nil, errors.Annotate(err, "ui display")
	}
	events, err := g.Input()
	if err != nil {
		return nil, errors.Annotate(err, "ui input")
	}
	interval := g.Config.PollInterval()
	return &ui.UI{
		Display: d,
		Events:  events,
		Log:     g.Log,
		Tele:    g.Tele,
		Idle:    func() { time.Sleep(interval) },
	}, nil
}

func New(g *state.Global, u *ui.UI) (*Panel, error) {
	d, err := g.Display()
	if err != nil {
		return nil, errors.Annotate(err, "panel display")
	}
	self := &Panel{
		g:       g,
		ui:      u,
		display: d,
		config:  &g.Config.UI,
	}
	self.applies = map[string]ApplyFunc{
		ApplyDisplayContrast: func(v float64) error {
			if v < 0 {
				v = 0
			}
			return self.display.SetContrast(uint8(v))
		},
	}
	return self, nil
}

// Build converts ui config into validated menu.
func Build(ctx context.Context, g *state.Global, u *ui.UI) (*ui.Menu, error) {
	p, err := New(g, u)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func (self *Panel) Build() (*ui.Menu, error) {
	cfg := self.config
	if len(cfg.Menus) == 0 {
		return nil, errors.NotValidf("config: ui menu empty")
	}
	ids := make(map[string]ui.TableID, len(cfg.Menus))
	for i, m := range cfg.Menus {
		if _, ok := ids[m.Name]; ok {
			return nil, errors.NotValidf("config: ui menu=%s duplicate", m.Name)
		}
		ids[m.Name] = ui.TableID(i)
	}

	errs := make([]error, 0)
	root := ui.TableID(0)
	if cfg.Root != "" {
		if id, ok := ids[cfg.Root]; ok {
			root = id
		} else {
			errs = append(errs, errors.NotFoundf("config: ui root=%s", cfg.Root))
		}
	}

	tables := make([]ui.Table, len(cfg.Menus))
	for i, m := range cfg.Menus {
		id := ui.TableID(i)
		t := &tables[i]
		t.Name = m.Name
		// kind defaults to main for root, sub for the rest
		switch {
		case m.Kind == KindMain || (m.Kind == "" && id == root):
			t.Kind = ui.TableMain
		case m.Kind == KindSub || m.Kind == "":
			t.Kind = ui.TableSub
		default:
			errs = append(errs, errors.NotValidf("config: ui menu=%s kind=%s", m.Name, m.Kind))
		}
		switch m.Back {
		case "":
			t.Back = ui.NoTable
			if t.Kind == ui.TableSub {
				errs = append(errs, errors.NotValidf("config: ui menu=%s kind=sub back=empty", m.Name))
			}
		case BackSelf:
			t.Back = id
		default:
			if back, ok := ids[m.Back]; ok {
				t.Back = back
			} else {
				errs = append(errs, errors.NotFoundf("config: ui menu=%s back=%s", m.Name, m.Back))
			}
		}

		t.Items = make([]ui.Item, 0, len(m.Items))
		for _, ci := range m.Items {
			item, err := self.item(ids, ci)
			if err != nil {
				errs = append(errs, errors.Annotatef(err, "config: ui menu=%s item=%s", m.Name, ci.Label))
				continue
			}
			t.Items = append(t.Items, item)
		}
	}

	if err := helpers.FoldErrors(errs); err != nil {
		return nil, err
	}
	return ui.NewMenu(tables, root)
}

// ApplyStored pushes persisted slider values into their apply hooks, such as display contrast after boot.
func (self *Panel) ApplyStored() error {
	errs := make([]error, 0)
	for _, s := range self.config.Sliders {
		if s.Apply == "" {
			continue
		}
		apply, err := self.apply(s.Apply)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = apply(float64(self.getInt(&s))); err != nil {
			errs = append(errs, errors.Annotatef(err, "slider=%s apply=%s", s.Name, s.Apply))
		}
	}
	for _, s := range self.config.FloatSliders {
		if s.Apply == "" {
			continue
		}
		apply, err := self.apply(s.Apply)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = apply(self.g.Settings.GetFloat(s.Address, s.Default)); err != nil {
			errs = append(errs, errors.Annotatef(err, "float_slider=%s apply=%s", s.Name, s.Apply))
		}
	}
	return helpers.FoldErrors(errs)
}

// Run keeps menu on screen until ctx is done.
// Dismissible root exit shows idle screen until Select re-enters menu.
func (self *Panel) Run(ctx context.Context, menu *ui.Menu) error {
	for {
		if err := self.ui.RunMenu(ctx, menu); err != nil {
			return err
		}
		if err := self.Idle(ctx); err != nil {
			return err
		}
	}
}

// Idle shows idle screen until Select is pushed.
func (self *Panel) Idle(ctx context.Context) error {
	self.g.Tele.State(tele_api.StateIdle)
	d := self.display
	_ = d.Clear()
	d.SetCursor(d.Width()/2, 2)
	d.PrintJustified(MsgIdle, types.JustifyCenter, 0)
	if err := d.Flush(); err != nil {
		self.g.Log.Errorf("idle display flush err=%v", err)
	}
	for {
		e, err := self.ui.WaitEvent(ctx)
		if err != nil {
			return err
		}
		if e.Is(types.ButtonSelect, types.PhasePushed) {
			return nil
		}
	}
}

// OnCommand handles telemetry command: button press into input latch or state report.
func (self *Panel) OnCommand(ctx context.Context, c *tele_api.Command) error {
	if c.Button != "" {
		b, err := types.ParseButtonID(c.Button)
		if err != nil {
			return errors.NewNotValid(err, "tele command")
		}
		hold := DefaultCommandHold
		if c.HoldMs > 0 {
			hold = time.Duration(c.HoldMs) * time.Millisecond
		}
		self.g.Log.Debugf("tele command press button=%s hold=%v", b, hold)
		self.g.Latch().Press(b, hold)
	}
	if c.Report {
		return self.g.Tele.Report(ctx)
	}
	return nil
}
