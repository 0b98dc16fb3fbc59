// Package pcd8544 drives 84x48 Nokia 5110 graphic LCD over SPI.
// D/C and RESET are separate gpio lines.
package pcd8544

import (
	"image"
	"strconv"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gpio-cdev-go"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const (
	Width  = 84
	Height = 48

	DefaultContrast = 0x40
	DefaultSpiSpeed = 4 * physic.MegaHertz
)

type Command byte

const (
	CommandNop      Command = 0x00
	CommandExtended Command = 0x21 // function set, H=1
	CommandBasic    Command = 0x20 // function set, H=0
	CommandVop      Command = 0x80 // extended, | contrast 0..127
	CommandTempCoef Command = 0x06 // extended
	CommandBias     Command = 0x14 // extended, 1:48
	CommandNormal   Command = 0x0c // display control, normal mode
	CommandX        Command = 0x80 // basic, | column
	CommandY        Command = 0x40 // basic, | bank
)

type TxFunc func(w, r []byte) error

type Config struct {
	SpiBus   string `hcl:"spi"`
	SpiSpeed string `hcl:"spi_speed"`
	PinChip  string `hcl:"pin_chip"`
	PinDC    string `hcl:"pin_dc"`
	PinReset string `hcl:"pin_reset"`
	Contrast int    `hcl:"contrast"`
}

type LCD struct {
	mu        sync.Mutex
	tx        TxFunc
	pins      gpio.Lineser
	pin_dc    gpio.LineSetFunc // low=command high=data
	pin_reset gpio.LineSetFunc // active low
	closers   []func() error
}

// Open initializes host drivers, opens SPI port and gpio lines.
func Open(c *Config) (*LCD, error) {
	nDC, err := parsePin(c.PinDC)
	if err != nil {
		return nil, errors.Annotate(err, "config pin_dc")
	}
	nReset, err := parsePin(c.PinReset)
	if err != nil {
		return nil, errors.Annotate(err, "config pin_reset")
	}

	if _, err = host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	spiPort, err := spireg.Open(c.SpiBus)
	if err != nil {
		return nil, errors.Annotatef(err, "SPI Open bus=%s", c.SpiBus)
	}
	spiSpeed := DefaultSpiSpeed
	if c.SpiSpeed != "" {
		if err = spiSpeed.Set(c.SpiSpeed); err != nil {
			spiPort.Close()
			return nil, errors.Annotate(err, "SPI speed parse")
		}
	}
	spiConn, err := spiPort.Connect(spiSpeed, spi.Mode0, 8)
	if err != nil {
		spiPort.Close()
		return nil, errors.Annotate(err, "SPI Connect")
	}

	chip, err := gpio.Open(c.PinChip, "panel")
	if err != nil {
		spiPort.Close()
		return nil, errors.Annotatef(err, "gpio open chip=%s", c.PinChip)
	}
	pins, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "panel-lcd", nDC, nReset)
	if err != nil {
		spiPort.Close()
		chip.Close()
		return nil, errors.Annotate(err, "gpio OpenLines")
	}

	self := New(spiConn.Tx, pins, nDC, nReset)
	self.closers = append(self.closers, spiPort.Close, chip.Close)
	contrast := uint8(DefaultContrast)
	if c.Contrast > 0 {
		contrast = uint8(c.Contrast)
	}
	if err = self.Init(contrast); err != nil {
		self.Close()
		return nil, err
	}
	return self, nil
}

// New is low level constructor, call Init() before use.
func New(tx TxFunc, pins gpio.Lineser, lineDC, lineReset uint32) *LCD {
	return &LCD{
		tx:        tx,
		pins:      pins,
		pin_dc:    pins.SetFunc(lineDC),
		pin_reset: pins.SetFunc(lineReset),
	}
}

func (self *LCD) Init(contrast uint8) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.pin_dc(0)
	self.pin_reset(0)
	if err := self.pins.Flush(); err != nil {
		return errors.Annotate(err, "reset low")
	}
	time.Sleep(time.Millisecond)
	self.pin_reset(1)
	if err := self.pins.Flush(); err != nil {
		return errors.Annotate(err, "reset high")
	}

	err := self.command(
		CommandNop,
		CommandExtended,
		CommandVop|Command(contrast&0x7f),
		CommandTempCoef,
		CommandBias,
		CommandBasic,
		CommandNormal,
	)
	return errors.Annotate(err, "pcd8544 init")
}

func (self *LCD) SetContrast(v uint8) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.command(CommandExtended, CommandVop|Command(v&0x7f), CommandBasic)
}

// Update writes whole frame, pix in display memory layout.
func (self *LCD) Update(pix []byte, size image.Point) error {
	if size.X != Width || size.Y != Height || len(pix) != Width*Height/8 {
		return errors.NotValidf("pcd8544 frame size=%s len=%d", size.String(), len(pix))
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if err := self.command(CommandX|0, CommandY|0); err != nil {
		return err
	}
	return self.data(pix)
}

func (self *LCD) Close() error {
	errs := make([]error, 0, 1+len(self.closers))
	errs = append(errs, self.pins.Close())
	for _, f := range self.closers {
		errs = append(errs, f())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (self *LCD) command(cs ...Command) error {
	self.pin_dc(0)
	if err := self.pins.Flush(); err != nil {
		return errors.Annotate(err, "pin dc")
	}
	buf := make([]byte, len(cs))
	for i, c := range cs {
		buf[i] = byte(c)
	}
	return errors.Annotate(self.tx(buf, nil), "command")
}

func (self *LCD) data(bs []byte) error {
	self.pin_dc(1)
	if err := self.pins.Flush(); err != nil {
		return errors.Annotate(err, "pin dc")
	}
	return errors.Annotate(self.tx(bs, nil), "data")
}

func parsePin(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Annotate(err, "pin must be number")
	}
	return uint32(x), nil
}
