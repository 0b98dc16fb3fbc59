package ui

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/temoto/panel/internal/types"
	tele_api "github.com/temoto/panel/tele"
)

type SliderOutcome uint8

const (
	SliderChanged SliderOutcome = iota + 1
	SliderSet
	SliderCancelled
)

func (o SliderOutcome) String() string {
	switch o {
	case SliderChanged:
		return "changed"
	case SliderSet:
		return "set"
	case SliderCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("SliderOutcome(%d)", uint8(o))
}

const (
	SliderFrameLine     = 2
	SliderNeedlePadding = 3
	// step is multiplied every this many events of one hold
	SliderAccelTicks = 16

	patternFrameEdge byte = 0x7f
	patternFrameBody byte = 0x41
	patternNeedle    byte = 0x5d

	intReadoutPad   = 6
	floatReadoutPad = 12
)

// IntSlider edits integer in [Min, Max]. Caller guarantees Min <= Initial <= Max and Step > 0.
type IntSlider struct {
	Min, Max, Step, Initial int
	Label                   string
}

// FloatSlider readout shows Digits after decimal point.
type FloatSlider struct {
	Min, Max, Step, Initial float64
	Label                   string
	Digits                  int
}

// Slider runs integer editor until Set or Cancel.
// Callback receives Changed on each value change, then Set with final value
// or Cancelled with zero value. ctx done returns ctx error without callback.
func (self *UI) Slider(ctx context.Context, s IntSlider, callback func(SliderOutcome, int)) error {
	value := s.Initial
	draw := func() {
		frac := 0.0
		if s.Max != s.Min {
			frac = float64(value-s.Min) / float64(s.Max-s.Min)
		}
		self.drawGauge(frac, strconv.Itoa(value), intReadoutPad)
	}
	adjust := func(up bool, mult int) bool {
		stepSize := s.Step * mult
		next := value - stepSize
		if up {
			next = value + stepSize
		}
		if next < s.Min {
			next = s.Min
		}
		if next > s.Max {
			next = s.Max
		}
		if next == value {
			return false
		}
		value = next
		callback(SliderChanged, value)
		return true
	}
	outcome, err := self.runSlider(ctx, s.Label, draw, adjust)
	if err != nil {
		return err
	}
	switch outcome {
	case SliderSet:
		self.activity(tele_api.Activity{Kind: tele_api.ActivitySliderSet, Label: s.Label, Value: float64(value)})
		callback(SliderSet, value)
	case SliderCancelled:
		self.activity(tele_api.Activity{Kind: tele_api.ActivitySliderCancel, Label: s.Label})
		callback(SliderCancelled, 0)
	}
	return nil
}

// FloatSlider is Slider for real numbers. Bound is detected by exact equality after clamp.
func (self *UI) FloatSlider(ctx context.Context, s FloatSlider, callback func(SliderOutcome, float64)) error {
	value := s.Initial
	draw := func() {
		frac := 0.0
		if s.Max != s.Min {
			frac = (value - s.Min) / (s.Max - s.Min)
		}
		self.drawGauge(frac, strconv.FormatFloat(value, 'f', s.Digits, 64), floatReadoutPad)
	}
	adjust := func(up bool, mult int) bool {
		stepSize := s.Step * float64(mult)
		next := value - stepSize
		if up {
			next = value + stepSize
		}
		if next < s.Min {
			next = s.Min
		}
		if next > s.Max {
			next = s.Max
		}
		if next == value {
			return false
		}
		value = next
		callback(SliderChanged, value)
		return true
	}
	outcome, err := self.runSlider(ctx, s.Label, draw, adjust)
	if err != nil {
		return err
	}
	switch outcome {
	case SliderSet:
		self.activity(tele_api.Activity{Kind: tele_api.ActivitySliderSet, Label: s.Label, Value: value})
		callback(SliderSet, value)
	case SliderCancelled:
		self.activity(tele_api.Activity{Kind: tele_api.ActivitySliderCancel, Label: s.Label})
		callback(SliderCancelled, 0)
	}
	return nil
}

func (self *UI) runSlider(ctx context.Context, label string, draw func(), adjust func(up bool, mult int) bool) (SliderOutcome, error) {
	d := self.Display
	self.state(tele_api.StateEdit)
	d.ClearSpace()
	d.SetCursor(d.Width()/2, 0)
	d.PrintJustified(label, types.JustifyCenter, 0)
	draw()
	self.DrawButtonBar(LabelSet, LabelCancel)
	self.flush()

	repeatCount := 0
	for {
		e, err := self.WaitEvent(ctx)
		if err != nil {
			return 0, err
		}
		switch {
		case e.Is(types.ButtonDown, types.PhasePushed, types.PhaseRepeated),
			e.Is(types.ButtonUp, types.PhasePushed, types.PhaseRepeated):
			if e.Phase == types.PhasePushed {
				repeatCount = 0
			}
			repeatCount++
			if adjust(e.Button == types.ButtonUp, repeatCount/SliderAccelTicks+1) {
				draw()
				self.flush()
			}

		case e.Is(types.ButtonSelect, types.PhasePushed):
			self.Log.Debugf("ui slider=%s set", label)
			return SliderSet, nil

		case e.Is(types.ButtonBack, types.PhasePushed):
			self.Log.Debugf("ui slider=%s cancel", label)
			return SliderCancelled, nil
		}
	}
}

// drawGauge draws frame with needle at frac of inner width and readout below.
func (self *UI) drawGauge(frac float64, readout string, pad int) {
	d := self.Display
	left := 0
	right := d.Width() - 1
	needleLeft := left + SliderNeedlePadding
	needleWidth := (right - left) - 2*SliderNeedlePadding
	needle := int(math.Floor(frac*float64(needleWidth) + 0.5))
	if needle < 0 {
		needle = 0
	}
	if needle > needleWidth {
		needle = needleWidth
	}

	d.DrawRow(left, left, SliderFrameLine, patternFrameEdge)
	d.DrawRow(left+1, needleLeft-1, SliderFrameLine, patternFrameBody)
	d.DrawRow(needleLeft, needleLeft+needle, SliderFrameLine, patternNeedle)
	d.DrawRow(needleLeft+needle+1, right-1, SliderFrameLine, patternFrameBody)
	d.DrawRow(right, right, SliderFrameLine, patternFrameEdge)

	d.SetCursor(d.Width()/2, SliderFrameLine+1)
	d.PrintJustified(readout, types.JustifyCenter, pad)
}
