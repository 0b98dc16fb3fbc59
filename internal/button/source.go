// Package button turns raw, possibly bouncing button samples into discrete
// Pushed/Repeated/Released events with software debounce and auto-repeat.
//
// Only one button cycle is tracked at a time. Another button pressed while
// the first is down is ignored until the first cycle resolves back to idle.
package button

import (
	"fmt"
	"time"

	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
)

const (
	DefaultDebounce    = 30 * time.Millisecond
	DefaultRepeatDelay = 800 * time.Millisecond
	DefaultRepeatRate  = 130 * time.Millisecond
)

type Timing struct {
	Debounce    time.Duration
	RepeatDelay time.Duration
	RepeatRate  time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Debounce:    DefaultDebounce,
		RepeatDelay: DefaultRepeatDelay,
		RepeatRate:  DefaultRepeatRate,
	}
}

type State uint8

const (
	StateIdle State = iota
	StateConfirmingDown
	StateSteadyDown
	StateSteadyDownRepeating
	StateWaitingRelease
	StateConfirmingRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirmingDown:
		return "confirming-down"
	case StateSteadyDown:
		return "steady-down"
	case StateSteadyDownRepeating:
		return "steady-down-repeating"
	case StateWaitingRelease:
		return "waiting-release"
	case StateConfirmingRelease:
		return "confirming-release"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

type Source struct {
	log     *log2.Log
	sampler types.Sampler
	clock   types.Clock
	timing  Timing

	state  State
	button types.ButtonID
	since  time.Duration
}

var _ types.EventSource = new(Source) // compile-time interface test

func NewSource(sampler types.Sampler, clock types.Clock, timing Timing, log *log2.Log) *Source {
	if sampler == nil || clock == nil {
		panic("code error button.NewSource sampler or clock is nil")
	}
	def := DefaultTiming()
	if timing.Debounce <= 0 {
		timing.Debounce = def.Debounce
	}
	if timing.RepeatDelay <= 0 {
		timing.RepeatDelay = def.RepeatDelay
	}
	if timing.RepeatRate <= 0 {
		timing.RepeatRate = def.RepeatRate
	}
	return &Source{
		log:     log,
		sampler: sampler,
		clock:   clock,
		timing:  timing,
	}
}

func (self *Source) State() State   { return self.state }
func (self *Source) Timing() Timing { return self.timing }

// PollEvent performs exactly one state machine step using current time
// and current raw sample. Returns at most one event.
func (self *Source) PollEvent() (types.Event, bool) {
	id := self.sampler.Sample()
	if self.state == StateIdle && id == types.ButtonNone {
		return types.Event{}, false
	}

	now := self.clock.Now()
	elapsed := now - self.since
	switch self.state {
	case StateIdle:
		self.button = id
		self.since = now
		self.state = StateConfirmingDown

	case StateConfirmingDown:
		if elapsed < self.timing.Debounce {
			break
		}
		if id != self.button {
			// noise
			self.state = StateIdle
			break
		}
		self.since = now
		self.state = StateSteadyDown
		return self.emit(types.PhasePushed)

	case StateSteadyDown:
		if id != self.button {
			self.state = StateWaitingRelease
			break
		}
		if elapsed < self.timing.RepeatDelay {
			break
		}
		self.since = now
		self.state = StateSteadyDownRepeating
		return self.emit(types.PhaseRepeated)

	case StateSteadyDownRepeating:
		if id != self.button {
			self.state = StateWaitingRelease
			break
		}
		if elapsed < self.timing.RepeatRate {
			break
		}
		self.since = now
		return self.emit(types.PhaseRepeated)

	case StateWaitingRelease:
		if id != types.ButtonNone {
			break
		}
		self.since = now
		self.state = StateConfirmingRelease

	case StateConfirmingRelease:
		if id != types.ButtonNone {
			self.state = StateWaitingRelease
			break
		}
		if elapsed < self.timing.Debounce {
			break
		}
		self.state = StateIdle
		return self.emit(types.PhaseReleased)

	default:
		panic(fmt.Sprintf("code error button state=%d", self.state))
	}
	return types.Event{}, false
}

func (self *Source) emit(phase types.Phase) (types.Event, bool) {
	e := types.Event{Button: self.button, Phase: phase}
	self.log.Debugf("button %s", e.String())
	return e, true
}
