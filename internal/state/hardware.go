package state

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/panel/hardware/display"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/hardware/pcd8544"
	"github.com/temoto/panel/hardware/term"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
)

type hardware struct {
	Display struct {
		once
		d    *display.Display
		term *term.Term
	}
	Input struct {
		once
		// tests may set Sampler before Init
		Sampler types.Sampler
		source  *button.Source
	}
	latch struct {
		once
		l *input.Latch
	}

	closersMu sync.Mutex
	closers   []io.Closer
}

func (g *Global) Display() (*display.Display, error) {
	x := &g.Hardware.Display // short alias
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Display
		switch cfg.Driver {
		case "", DisplayMock:
			x.d = display.NewMock()
			return nil

		case DisplayFramebuffer:
			d, err := display.NewFb(cfg.Framebuffer)
			if err != nil {
				return errors.Annotatef(err, "config: display=%s", cfg.Driver)
			}
			x.d = d
			return nil

		case DisplayPCD8544:
			lcd, err := pcd8544.Open(g.Config.PCD8544())
			if err != nil {
				return errors.Annotatef(err, "config: display=%s", cfg.Driver)
			}
			g.addCloser(lcd)
			x.d = display.New(display.DefaultWidth, display.DefaultLines, lcd)
			return nil

		case DisplayTerm:
			t, err := term.Open(g.Latch())
			if err != nil {
				return errors.Annotatef(err, "config: display=%s", cfg.Driver)
			}
			g.addCloser(t)
			x.term = t
			x.d = display.New(display.DefaultWidth, display.DefaultLines, t)
			return nil

		default:
			return errors.NotValidf("config: display driver=%s valid: mock, framebuffer, pcd8544, term", cfg.Driver)
		}
	})
	return x.d, x.err
}

func (g *Global) MustDisplay() *display.Display {
	d, err := g.Display()
	if err != nil {
		g.Fatal(err)
	}
	if d == nil {
		g.Fatal(errors.Errorf("display is not configured"))
	}
	return d
}

// Term is not nil only with display driver=term.
func (g *Global) Term() *term.Term {
	_, _ = g.Display()
	return g.Hardware.Display.term
}

// Latch accepts presses from terminal keys, input events and telemetry commands.
func (g *Global) Latch() *input.Latch {
	x := &g.Hardware.latch
	_ = x.do(func() error {
		x.l = input.NewLatch(g.Clock)
		return nil
	})
	return x.l
}

// Input returns button event source over all enabled samplers.
func (g *Global) Input() (*button.Source, error) {
	x := &g.Hardware.Input // short alias
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Input
		log := g.Log.Clone(log2.LInfo)
		samplers := []types.Sampler{g.Latch(), x.Sampler}

		if cfg.Gpio.Enable {
			s, err := input.OpenGpio(&cfg.Gpio, log)
			if err != nil {
				return errors.Annotate(err, "config: input.gpio")
			}
			g.addCloser(s)
			samplers = append(samplers, s)
		}
		if cfg.Ladder.Enable {
			s, err := input.OpenLadder(&cfg.Ladder, log)
			if err != nil {
				return errors.Annotate(err, "config: input.ladder")
			}
			g.addCloser(s)
			samplers = append(samplers, s)
		}
		if cfg.DevInputEvent.Enable {
			s, err := input.NewDevInputEventSource(cfg.DevInputEvent.Device, g.Latch(), log)
			if err != nil {
				return errors.Annotate(err, "config: input.dev_input_event")
			}
			go func() {
				if err := s.Run(g.Alive); err != nil {
					g.Error(err, "input.dev_input_event")
				}
			}()
		}

		x.source = button.NewSource(input.Any(samplers...), g.Clock, g.Config.ButtonTiming(), g.Log)
		return nil
	})
	return x.source, x.err
}

func (g *Global) MustInput() *button.Source {
	s, err := g.Input()
	if err != nil {
		g.Fatal(err)
	}
	return s
}

func (g *Global) addCloser(c io.Closer) {
	g.Hardware.closersMu.Lock()
	g.Hardware.closers = append(g.Hardware.closers, c)
	g.Hardware.closersMu.Unlock()
}

func (g *Global) closeHardware() {
	g.Hardware.closersMu.Lock()
	cs := g.Hardware.closers
	g.Hardware.closers = nil
	g.Hardware.closersMu.Unlock()
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			g.Log.Errorf("hardware close err=%v", err)
		}
	}
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
