package types

import (
	"fmt"
	"strings"
	"time"
)

type ButtonID uint8

const (
	ButtonNone ButtonID = iota
	ButtonSelect
	ButtonBack
	ButtonUp
	ButtonDown
)

func (b ButtonID) String() string {
	switch b {
	case ButtonNone:
		return "none"
	case ButtonSelect:
		return "select"
	case ButtonBack:
		return "back"
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	}
	return fmt.Sprintf("ButtonID(%d)", uint8(b))
}

func ParseButtonID(s string) (ButtonID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "select", "enter", "ok":
		return ButtonSelect, nil
	case "back", "cancel", "esc":
		return ButtonBack, nil
	case "up":
		return ButtonUp, nil
	case "down":
		return ButtonDown, nil
	}
	return ButtonNone, fmt.Errorf("unknown button=%s", s)
}

type Phase uint8

const (
	PhasePushed Phase = iota + 1
	PhaseRepeated
	PhaseReleased
)

func (p Phase) String() string {
	switch p {
	case PhasePushed:
		return "pushed"
	case PhaseRepeated:
		return "repeated"
	case PhaseReleased:
		return "released"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Event is a debounced button transition. Button is never ButtonNone.
type Event struct {
	Button ButtonID
	Phase  Phase
}

func (e Event) String() string { return fmt.Sprintf("Event(%s %s)", e.Button, e.Phase) }

// Is reports whether e is one of phases of button b.
func (e Event) Is(b ButtonID, phases ...Phase) bool {
	if e.Button != b {
		return false
	}
	for _, p := range phases {
		if e.Phase == p {
			return true
		}
	}
	return false
}

// Sampler reports currently pressed button or ButtonNone.
// Must be cheap and free of side effects visible to caller, it is called on every poll.
type Sampler interface {
	Sample() ButtonID
}

type SamplerFunc func() ButtonID

func (f SamplerFunc) Sample() ButtonID { return f() }

// Clock is monotonic time source, value is elapsed time since arbitrary origin.
type Clock interface {
	Now() time.Duration
}

// EventSource yields at most one event per call, never blocks.
type EventSource interface {
	PollEvent() (Event, bool)
}
