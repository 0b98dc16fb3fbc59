// Package term shows display bitmap in terminal and reads keys from it.
// One terminal cell holds two vertical pixels as half-block glyph.
package term

import (
	"image"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/internal/types"
)

// DefaultHold is how long key press stays on latch.
// Terminals don't report key release.
const DefaultHold = 200 * time.Millisecond

type Term struct {
	screen tcell.Screen
	latch  *input.Latch
	hold   time.Duration
	style  tcell.Style
}

func Open(latch *input.Latch) (*Term, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Annotate(err, "term")
	}
	if err = screen.Init(); err != nil {
		return nil, errors.Annotate(err, "term init")
	}
	return New(screen, latch), nil
}

// New expects initialized screen.
func New(screen tcell.Screen, latch *input.Latch) *Term {
	screen.HideCursor()
	screen.Clear()
	return &Term{
		screen: screen,
		latch:  latch,
		hold:   DefaultHold,
		style:  tcell.StyleDefault,
	}
}

func (self *Term) SetHold(d time.Duration) { self.hold = d }

// Update draws bitmap in display memory layout: byte per 8 pixel column, LSB top.
func (self *Term) Update(pix []byte, size image.Point) error {
	if len(pix) < size.X*((size.Y+7)/8) {
		return errors.NotValidf("term frame size=%s len=%d", size.String(), len(pix))
	}
	on := func(x, y int) bool {
		if y >= size.Y {
			return false
		}
		return pix[(y/8)*size.X+x]&(1<<uint(y%8)) != 0
	}
	for y := 0; y < size.Y; y += 2 {
		for x := 0; x < size.X; x++ {
			r := ' '
			switch top, bottom := on(x, y), on(x, y+1); {
			case top && bottom:
				r = '█'
			case top:
				r = '▀'
			case bottom:
				r = '▄'
			}
			self.screen.SetContent(x, y/2, r, nil, self.style)
		}
	}
	self.screen.Show()
	return nil
}

func KeyButton(ev *tcell.EventKey) types.ButtonID {
	switch ev.Key() {
	case tcell.KeyEnter:
		return types.ButtonSelect
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2:
		return types.ButtonBack
	case tcell.KeyUp:
		return types.ButtonUp
	case tcell.KeyDown:
		return types.ButtonDown
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return types.ButtonSelect
		case 'k':
			return types.ButtonUp
		case 'j':
			return types.ButtonDown
		}
	}
	return types.ButtonNone
}

// Run reads keyboard until 'q', Ctrl-C or alive stop.
// Keys are pressed on latch for hold duration.
func (self *Term) Run(a *alive.Alive) {
	if a != nil {
		go func() {
			<-a.StopChan()
			self.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}()
	}
	for {
		switch ev := self.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			self.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				if a != nil {
					a.Stop()
				}
				return
			}
			if b := KeyButton(ev); b != types.ButtonNone {
				self.latch.Press(b, self.hold)
			}
		}
	}
}

func (self *Term) Close() error {
	self.screen.Fini()
	return nil
}
