package input

import (
	"github.com/juju/errors"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// Resistor ladder ADC readings, 10 bit.
const (
	LadderDown      = 673
	LadderUp        = 487
	LadderBack      = 319
	LadderTolerance = 40
	LadderSelectMax = 80
)

type LadderConfig struct {
	Enable  bool   `hcl:"enable"`
	SpiBus  string `hcl:"spi"`
	Channel int    `hcl:"channel"`
}

type TxFunc func(w, r []byte) error

// LadderSampler reads MCP3008 channel connected to resistor ladder,
// all buttons share one analog input.
type LadderSampler struct {
	log     *log2.Log
	tx      TxFunc
	channel uint8
	closer  func() error
	w, r    [3]byte
	errOnce bool
}

// compile-time interface compliance test
var _ types.Sampler = new(LadderSampler)

func OpenLadder(c *LadderConfig, log *log2.Log) (*LadderSampler, error) {
	if c.Channel < 0 || c.Channel > 7 {
		return nil, errors.NotValidf("input ladder channel=%d", c.Channel)
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	port, err := spireg.Open(c.SpiBus)
	if err != nil {
		return nil, errors.Annotatef(err, "input ladder SPI Open bus=%s", c.SpiBus)
	}
	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, errors.Annotate(err, "input ladder SPI Connect")
	}
	self := NewLadder(conn.Tx, uint8(c.Channel), log)
	self.closer = port.Close
	return self, nil
}

func NewLadder(tx TxFunc, channel uint8, log *log2.Log) *LadderSampler {
	return &LadderSampler{log: log, tx: tx, channel: channel & 7}
}

// Read returns raw 10 bit single-ended conversion.
func (self *LadderSampler) Read() (uint16, error) {
	self.w = [3]byte{0x01, 0x80 | self.channel<<4, 0}
	if err := self.tx(self.w[:], self.r[:]); err != nil {
		return 0, errors.Annotate(err, "input ladder")
	}
	return uint16(self.r[1]&3)<<8 | uint16(self.r[2]), nil
}

func (self *LadderSampler) Sample() types.ButtonID {
	v, err := self.Read()
	if err != nil {
		if !self.errOnce {
			self.errOnce = true
			self.log.Error(err)
		}
		return types.ButtonNone
	}
	self.errOnce = false
	return LadderButton(v)
}

func (self *LadderSampler) Close() error {
	if self.closer != nil {
		return self.closer()
	}
	return nil
}

// LadderButton maps ADC reading to button, closest window wins
// in order Down, Up, Back, Select.
func LadderButton(v uint16) types.ButtonID {
	near := func(target int) bool {
		d := int(v) - target
		return d >= -LadderTolerance && d <= LadderTolerance
	}
	switch {
	case near(LadderDown):
		return types.ButtonDown
	case near(LadderUp):
		return types.ButtonUp
	case near(LadderBack):
		return types.ButtonBack
	case v <= LadderSelectMax:
		return types.ButtonSelect
	}
	return types.ButtonNone
}
