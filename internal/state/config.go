package state

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/hardware/pcd8544"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/settings"
	ui_config "github.com/temoto/panel/internal/ui/config"
	"github.com/temoto/panel/log2"
	tele_config "github.com/temoto/panel/tele/config"
)

const (
	DisplayMock        = "mock"
	DisplayFramebuffer = "framebuffer"
	DisplayPCD8544     = "pcd8544"
	DisplayTerm        = "term"

	DefaultPersistRoot  = "./tmp-panel-db"
	DefaultPollInterval = time.Millisecond
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		Display struct { //nolint:maligned
			Driver      string `hcl:"driver"`
			Framebuffer string `hcl:"framebuffer"`
			SpiBus      string `hcl:"spi"`
			SpiSpeed    string `hcl:"spi_speed"`
			PinChip     string `hcl:"pin_chip"`
			PinDC       string `hcl:"pin_dc"`
			PinReset    string `hcl:"pin_reset"`
			Contrast    int    `hcl:"contrast"`
		} `hcl:"display"`
		Input struct {
			Gpio          input.GpioConfig          `hcl:"gpio"`
			Ladder        input.LadderConfig        `hcl:"ladder"`
			DevInputEvent input.DevInputEventConfig `hcl:"dev_input_event"`
		} `hcl:"input"`
	} `hcl:"hardware"`

	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`
	Settings settings.Config    `hcl:"settings"`
	Tele     tele_config.Config `hcl:"tele"`
	UI       ui_config.Config   `hcl:"ui"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) PCD8544() *pcd8544.Config {
	d := &c.Hardware.Display
	return &pcd8544.Config{
		SpiBus:   d.SpiBus,
		SpiSpeed: d.SpiSpeed,
		PinChip:  d.PinChip,
		PinDC:    d.PinDC,
		PinReset: d.PinReset,
		Contrast: d.Contrast,
	}
}

// ButtonTiming converts ui millisecond settings, zero keeps default.
func (c *Config) ButtonTiming() button.Timing {
	return button.Timing{
		Debounce:    time.Duration(c.UI.DebounceMs) * time.Millisecond,
		RepeatDelay: time.Duration(c.UI.RepeatDelayMs) * time.Millisecond,
		RepeatRate:  time.Duration(c.UI.RepeatRateMs) * time.Millisecond,
	}
}

func (c *Config) PollInterval() time.Duration {
	if c.UI.PollIntervalMs <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.UI.PollIntervalMs) * time.Millisecond
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
