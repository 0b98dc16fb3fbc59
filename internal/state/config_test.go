package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/helpers/atomic_clock"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/settings"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, context.Context)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, ctx context.Context) {
			g := GetGlobal(ctx)
			assert.Equal(t, DisplayMock, g.Config.Hardware.Display.Driver)
			assert.Equal(t, DefaultPersistRoot, g.Config.Persist.Root)
			assert.Equal(t, settings.DefaultSize, g.Config.Settings.Size)
			assert.Equal(t, button.DefaultTiming(), g.MustInput().Timing())
			assert.Equal(t, DefaultPollInterval, g.Config.PollInterval())
		}, ""},

		{"hardware", `
hardware {
	display { driver = "mock" spi = "/dev/spidev0.0" pin_dc = "24" pin_reset = "25" contrast = 50 }
	input {
		gpio { pin_chip = "/dev/gpiochip0" pin_select = "17" active_low = true }
		dev_input_event { device = "/dev/input/event3" }
	}
}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				pc := g.Config.PCD8544()
				assert.Equal(t, "/dev/spidev0.0", pc.SpiBus)
				assert.Equal(t, "24", pc.PinDC)
				assert.Equal(t, "25", pc.PinReset)
				assert.Equal(t, 50, pc.Contrast)
				assert.False(t, g.Config.Hardware.Input.Gpio.Enable)
				assert.True(t, g.Config.Hardware.Input.Gpio.ActiveLow)
				assert.Equal(t, "17", g.Config.Hardware.Input.Gpio.PinSelect)
				assert.Equal(t, "/dev/input/event3", g.Config.Hardware.Input.DevInputEvent.Device)
			}, ""},

		{"ui-timing", `ui { debounce_ms = 20 repeat_delay_ms = 500 repeat_rate_ms = 100 poll_interval_ms = 5 }`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, button.Timing{
					Debounce:    20 * time.Millisecond,
					RepeatDelay: 500 * time.Millisecond,
					RepeatRate:  100 * time.Millisecond,
				}, g.MustInput().Timing())
				assert.Equal(t, 5*time.Millisecond, g.Config.PollInterval())
			}, ""},

		{"ui-menu", `
ui {
	root = "main"
	menu "main" {
		kind = "main"
		back = "self"
		item "Contrast" { command = "slider.contrast" }
		item "Setup" { submenu = "setup" }
	}
	menu "setup" {
		kind = "sub"
		back = "main"
		item "Sound" { toggle = "sound" }
	}
	slider "contrast" { label = "Contrast" min = 0 max = 127 step = 1 address = 0 default = 64 }
	float_slider "gain" { min = 0.5 max = 2.0 step = 0.05 digits = 2 address = 8 }
	toggle "sound" { address = 16 states = ["On", "Off"] }
}`,
			func(t testing.TB, ctx context.Context) {
				ui := GetGlobal(ctx).Config.UI
				require.Len(t, ui.Menus, 2)
				assert.Equal(t, "main", ui.Menus[0].Name)
				assert.Equal(t, "self", ui.Menus[0].Back)
				require.Len(t, ui.Menus[0].Items, 2)
				assert.Equal(t, "Contrast", ui.Menus[0].Items[0].Label)
				assert.Equal(t, "slider.contrast", ui.Menus[0].Items[0].Command)
				assert.Equal(t, "setup", ui.Menus[0].Items[1].Submenu)
				assert.Equal(t, "sound", ui.Menus[1].Items[0].Toggle)
				require.Len(t, ui.Sliders, 1)
				assert.Equal(t, 127, ui.Sliders[0].Max)
				require.Len(t, ui.FloatSliders, 1)
				assert.Equal(t, 0.05, ui.FloatSliders[0].Step)
				assert.Equal(t, 2, ui.FloatSliders[0].Digits)
				require.Len(t, ui.Toggles, 1)
				assert.Equal(t, []string{"On", "Off"}, ui.Toggles[0].States)
			}, ""},

		{"include-normalize", `
persist { root = "/tmp/a" }
include "./empty" {}`,
			nil, ""},

		{"include-optional", `
include "tele-id" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "panel7", g.Config.Tele.ClientID)
			}, ""},

		{"include-overwrites", `
tele { client_id = "first" }
include "tele-id" {}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "panel7", g.Config.Tele.ClientID)
			}, ""},

		{"error-display-driver", `hardware { display { driver = "crt" } }`, nil, "display driver=crt"},
		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			ctx, g := NewContext(log, tele_api.NewStub())
			g.Clock = atomic_clock.New(0)
			g.Settings = settings.New(0)

			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"empty":        "",
				"tele-id":      `tele { client_id = "panel7" }`,
				"error-syntax": "hello",
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if err == nil {
				err = g.Init(ctx, cfg)
			}
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, ctx)
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, mkCheck(c))
	}
}

func TestGlobalInput(t *testing.T) {
	t.Parallel()

	ctx, g := NewTestContext(t, `ui { debounce_ms = 10 }`)
	_ = ctx
	clock := g.TestClock()
	src := g.MustInput()
	latch := g.Latch()

	_, ok := src.PollEvent()
	assert.False(t, ok)

	latch.Press(types.ButtonUp, 100*time.Millisecond)
	_, ok = src.PollEvent()
	assert.False(t, ok, "debounce")
	clock.Add(10 * time.Millisecond)
	e, ok := src.PollEvent()
	require.True(t, ok)
	assert.Equal(t, types.Event{Button: types.ButtonUp, Phase: types.PhasePushed}, e)

	clock.Add(100 * time.Millisecond)
	assert.Equal(t, types.ButtonNone, latch.Sample())
}

func TestGlobalDisplayMock(t *testing.T) {
	t.Parallel()

	_, g := NewTestContext(t, "")
	d := g.MustDisplay()
	assert.Equal(t, 84, d.Width())
	assert.Equal(t, 6, d.Lines())
	assert.Nil(t, g.Term())
	require.NotNil(t, g.Settings)
	assert.Equal(t, settings.DefaultSize, g.Settings.Size())
}

func TestGlobalSettingsPersist(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	log := log2.NewTest(t, log2.LDebug)
	fs := NewMockFullReader(map[string]string{
		"persist": `persist { root = "` + root + `" }`,
	})
	ctx, g := NewContext(log, tele_api.NewStub())
	g.Clock = atomic_clock.New(0)
	require.NoError(t, g.Init(ctx, MustReadConfig(log, fs, "persist")))
	require.NoError(t, g.Settings.PutByte(4, 42))
	g.StopWait(time.Second)

	s, err := settings.Open(root, 0, log)
	require.NoError(t, err)
	assert.Equal(t, byte(42), s.GetByte(4, 0))
	_, err = os.Stat(filepath.Join(root, "settings", "settings"))
	assert.True(t, os.IsNotExist(err), "nested settings dir err=%v", err)
}
