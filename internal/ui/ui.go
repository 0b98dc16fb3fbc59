// Package ui runs modal menu and value editor loops over debounced
// button events and draws them on a small monochrome display.
package ui

import (
	"context"
	"time"

	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
)

const (
	PageSize = 4

	ButtonWidth        = 39
	LeftButtonCenterX  = 20
	RightButtonCenterX = 65

	DefaultPollInterval = time.Millisecond

	patternBlank    byte = 0x00
	patternFull     byte = 0xff
	patternOverline byte = 0x80
	menuIndentX          = 3
	glyphArrow           = "\x80"
)

const (
	LabelSelect = "Select"
	LabelBack   = "Back"
	LabelSet    = "Set"
	LabelCancel = "Cancel"
)

// UI is shared by menu and value editor loops.
// Only one loop runs at a time, nested loops block the caller.
type UI struct {
	Display types.Display
	Events  types.EventSource
	Log     *log2.Log
	Tele    tele_api.Teler
	// Idle is called between empty polls, nil sleeps DefaultPollInterval.
	Idle func()
}

// WaitEvent polls event source until event or ctx is done.
func (self *UI) WaitEvent(ctx context.Context) (types.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return types.Event{}, err
		}
		if e, ok := self.Events.PollEvent(); ok {
			return e, nil
		}
		if self.Idle != nil {
			self.Idle()
		} else {
			time.Sleep(DefaultPollInterval)
		}
	}
}

// DrawButtonBar draws two reverse labels on last line and overline above.
// Empty label leaves its button blank.
func (self *UI) DrawButtonBar(left, right string) {
	d := self.Display
	rightLeftX := RightButtonCenterX - ButtonWidth/2
	rightRightX := rightLeftX + ButtonWidth - 1

	d.SetCursor(0, d.Lines()-1)
	if left != "" {
		d.PrintCenteredReverse(left, LeftButtonCenterX, ButtonWidth)
	}
	d.FillTo(rightLeftX-1, patternBlank)
	if right != "" {
		d.PrintCenteredReverse(right, RightButtonCenterX, ButtonWidth)
	} else {
		d.FillToEnd(patternBlank)
	}

	// overline covers upper case letters touching button top
	d.SetCursor(0, d.Lines()-2)
	if left != "" {
		d.FillTo(ButtonWidth, patternOverline)
	}
	d.FillTo(rightLeftX-1, patternBlank)
	if right != "" {
		d.FillTo(rightRightX, patternOverline)
	} else {
		d.FillToEnd(patternBlank)
	}
}

func (self *UI) flush() {
	if err := self.Display.Flush(); err != nil {
		self.Log.Errorf("ui display flush err=%v", err)
	}
}

func (self *UI) activity(a tele_api.Activity) {
	self.Log.Debugf("ui activity=%#v", a)
	if self.Tele != nil {
		self.Tele.Activity(a)
	}
}

func (self *UI) state(s tele_api.State) {
	if self.Tele != nil {
		self.Tele.State(s)
	}
}
