package input

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
	"github.com/temoto/gpio-cdev-go"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
)

type GpioConfig struct {
	Enable    bool   `hcl:"enable"`
	PinChip   string `hcl:"pin_chip"`
	ActiveLow bool   `hcl:"active_low"`
	PinSelect string `hcl:"pin_select"`
	PinBack   string `hcl:"pin_back"`
	PinUp     string `hcl:"pin_up"`
	PinDown   string `hcl:"pin_down"`
}

// GpioSampler reads one line per button. Lines are checked in order
// Select, Back, Up, Down, first active wins.
type GpioSampler struct {
	log     *log2.Log
	lines   gpio.Lineser
	buttons [4]types.ButtonID
	errOnce bool
	closers []func() error
}

// compile-time interface compliance test
var _ types.Sampler = new(GpioSampler)

func OpenGpio(c *GpioConfig, log *log2.Log) (*GpioSampler, error) {
	chip, err := gpio.Open(c.PinChip, "panel")
	if err != nil {
		return nil, errors.Annotatef(err, "input gpio open chip=%s", c.PinChip)
	}
	return newGpioChip(chip, c, log)
}

// newGpioChip takes ownership of chip, it is closed on error or with sampler.
func newGpioChip(chip gpio.Chiper, c *GpioConfig, log *log2.Log) (*GpioSampler, error) {
	pins := []string{c.PinSelect, c.PinBack, c.PinUp, c.PinDown}
	offsets := make([]uint32, len(pins))
	for i, s := range pins {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			chip.Close()
			return nil, errors.Annotatef(err, "input gpio pin=%q", s)
		}
		offsets[i] = uint32(n)
	}
	flag := gpio.GPIOHANDLE_REQUEST_INPUT
	if c.ActiveLow {
		flag |= gpio.GPIOHANDLE_REQUEST_ACTIVE_LOW
	}
	lines, err := chip.OpenLines(flag, "panel-buttons", offsets...)
	if err != nil {
		chip.Close()
		return nil, errors.Annotate(err, "input gpio OpenLines")
	}
	self := NewGpio(lines, log)
	self.closers = append(self.closers, chip.Close)
	return self, nil
}

// NewGpio expects lines opened in order Select, Back, Up, Down.
func NewGpio(lines gpio.Lineser, log *log2.Log) *GpioSampler {
	return &GpioSampler{
		log:     log,
		lines:   lines,
		buttons: [4]types.ButtonID{types.ButtonSelect, types.ButtonBack, types.ButtonUp, types.ButtonDown},
	}
}

func (self *GpioSampler) String() string { return fmt.Sprintf("gpio%v", self.buttons) }

func (self *GpioSampler) Sample() types.ButtonID {
	data, err := self.lines.Read()
	if err != nil {
		// read error is reported once, sampler reports none until lines recover
		if !self.errOnce {
			self.errOnce = true
			self.log.Errorf("input gpio read err=%v", err)
		}
		return types.ButtonNone
	}
	self.errOnce = false
	for i, b := range self.buttons {
		if data.Values[i] != 0 {
			return b
		}
	}
	return types.ButtonNone
}

// Close releases lines, then chip.
func (self *GpioSampler) Close() error {
	errs := make([]error, 0, 1+len(self.closers))
	errs = append(errs, self.lines.Close())
	for _, f := range self.closers {
		errs = append(errs, f())
	}
	for _, e := range errs {
		if e != nil {
			return errors.Annotate(e, "input gpio close")
		}
	}
	return nil
}
