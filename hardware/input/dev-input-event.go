package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/inputevent-go"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
)

const DevInputEventTag = "dev-input-event"

const evKey uint16 = 0x01

// Linux key codes.
const (
	KeyEsc       uint16 = 1
	KeyBackspace uint16 = 14
	KeyEnter     uint16 = 28
	KeyKPEnter   uint16 = 96
	KeyUp        uint16 = 103
	KeyDown      uint16 = 108
)

type DevInputEventConfig struct {
	Enable bool   `hcl:"enable"`
	Device string `hcl:"device"`
}

// DevInputEventSource reads key events and presses them on latch.
type DevInputEventSource struct {
	log   *log2.Log
	f     io.ReadCloser
	latch *Latch
}

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string, latch *Latch, log *log2.Log) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotate(err, DevInputEventTag)
	}
	return NewDevInputEventReader(f, latch, log), nil
}

func NewDevInputEventReader(r io.ReadCloser, latch *Latch, log *log2.Log) *DevInputEventSource {
	return &DevInputEventSource{log: log, f: r, latch: latch}
}

func KeyButton(code uint16) types.ButtonID {
	switch code {
	case KeyEnter, KeyKPEnter:
		return types.ButtonSelect
	case KeyEsc, KeyBackspace:
		return types.ButtonBack
	case KeyUp:
		return types.ButtonUp
	case KeyDown:
		return types.ButtonDown
	}
	return types.ButtonNone
}

// Run feeds latch until read error or alive stop. Returns nil on stop or EOF.
func (self *DevInputEventSource) Run(a *alive.Alive) error {
	if a != nil {
		go func() {
			<-a.StopChan()
			self.f.Close()
		}()
	}
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			if err == io.EOF || (a != nil && !a.IsRunning()) {
				return nil
			}
			return errors.Annotate(err, DevInputEventTag)
		}
		if ie.Type != evKey {
			continue
		}
		b := KeyButton(ie.Code)
		if b == types.ButtonNone {
			self.log.Debugf("%s ignore key=%d", DevInputEventTag, ie.Code)
			continue
		}
		switch inputevent.KeyEventState(ie.Value) {
		case inputevent.KeyStateDown, inputevent.KeyStateHold:
			self.latch.Press(b, 0)
		case inputevent.KeyStateUp:
			self.latch.Release(b)
		}
	}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }
