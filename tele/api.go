package tele

import (
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

type State uint8

const (
	StateInvalid State = iota
	StateBoot
	StateMenu
	StateEdit
	StateIdle
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "invalid"
	case StateBoot:
		return "boot"
	case StateMenu:
		return "menu"
	case StateEdit:
		return "edit"
	case StateIdle:
		return "idle"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func ParseState(s string) (State, error) {
	for st := StateInvalid; st <= StateDisconnected; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StateInvalid, errors.NotValidf("state=%s", s)
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }
func (s *State) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.Annotate(err, "state")
	}
	st, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

type ActivityKind string

const (
	ActivityCommand      ActivityKind = "command"
	ActivityToggle       ActivityKind = "toggle"
	ActivitySubmenu      ActivityKind = "submenu"
	ActivityBack         ActivityKind = "back"
	ActivitySliderSet    ActivityKind = "slider_set"
	ActivitySliderCancel ActivityKind = "slider_cancel"
	ActivityExit         ActivityKind = "exit"
)

// Activity is user action in menu or value editor.
type Activity struct {
	Kind   ActivityKind `json:"kind"`
	Table  string       `json:"table,omitempty"`
	Label  string       `json:"label,omitempty"`
	Status string       `json:"status,omitempty"`
	Value  float64      `json:"value,omitempty"`
}

// Command is remote request from control side.
//
//	{"button":"up","hold_ms":50} presses button
//	{"report":true} publishes current state
type Command struct {
	Button string `json:"button,omitempty"`
	HoldMs int    `json:"hold_ms,omitempty"`
	Report bool   `json:"report,omitempty"`
}

func ParseCommand(b []byte) (*Command, error) {
	c := new(Command)
	if err := json.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "tele command")
	}
	if c.Button == "" && !c.Report {
		return nil, errors.NotValidf("tele command empty")
	}
	return c, nil
}

// Telemetry is one message to control side, at most one of optional fields is set.
type Telemetry struct {
	ClientID string    `json:"client_id"`
	Time     int64     `json:"time"`
	State    State     `json:"state"`
	Error    string    `json:"error,omitempty"`
	Activity *Activity `json:"activity,omitempty"`
	Report   bool      `json:"report,omitempty"`
}
