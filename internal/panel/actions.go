package panel

import (
	"context"
	"math"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/internal/ui"
	ui_config "github.com/temoto/panel/internal/ui/config"
)

func (self *Panel) item(ids map[string]ui.TableID, ci ui_config.Item) (ui.Item, error) {
	n := 0
	for _, s := range []string{ci.Command, ci.Toggle, ci.Submenu} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return ui.Item{}, errors.NotValidf("need exactly one of command, toggle, submenu")
	}

	switch {
	case ci.Submenu != "":
		id, ok := ids[ci.Submenu]
		if !ok {
			return ui.Item{}, errors.NotFoundf("submenu=%s", ci.Submenu)
		}
		return ui.SubMenu(ci.Label, id), nil

	case ci.Toggle != "":
		f, err := self.toggle(ci.Toggle)
		if err != nil {
			return ui.Item{}, err
		}
		return ui.Toggle(ci.Label, f), nil

	default:
		f, err := self.command(ci.Command)
		if err != nil {
			return ui.Item{}, err
		}
		return ui.Command(ci.Label, f), nil
	}
}

func (self *Panel) command(name string) (ui.CommandFunc, error) {
	switch {
	case name == CommandAbout:
		return self.about, nil

	case name == CommandSettingsReset:
		return self.settingsReset, nil

	case strings.HasPrefix(name, prefixSlider):
		key := strings.TrimPrefix(name, prefixSlider)
		for i := range self.config.Sliders {
			if s := &self.config.Sliders[i]; s.Name == key {
				return self.intSliderCommand(s)
			}
		}
		return nil, errors.NotFoundf("command=%s slider", name)

	case strings.HasPrefix(name, prefixFloatSlider):
		key := strings.TrimPrefix(name, prefixFloatSlider)
		for i := range self.config.FloatSliders {
			if s := &self.config.FloatSliders[i]; s.Name == key {
				return self.floatSliderCommand(s)
			}
		}
		return nil, errors.NotFoundf("command=%s float_slider", name)
	}
	return nil, errors.NotFoundf("command=%s", name)
}

func (self *Panel) apply(name string) (ApplyFunc, error) {
	if name == "" {
		return func(float64) error { return nil }, nil
	}
	if f, ok := self.applies[name]; ok {
		return f, nil
	}
	return nil, errors.NotFoundf("apply=%s", name)
}

func (self *Panel) checkAddress(addr, footprint int) error {
	if addr < 0 || addr+footprint > self.g.Settings.Size() {
		return errors.NotValidf("address=%d size=%d", addr, self.g.Settings.Size())
	}
	return nil
}

// int16 range is stored as int, wider as long.
func intFootprint(s *ui_config.Slider) int {
	if s.Min >= math.MinInt16 && s.Max <= math.MaxInt16 {
		return 3
	}
	return 5
}

func (self *Panel) getInt(s *ui_config.Slider) int {
	var v int
	if intFootprint(s) == 3 {
		v = int(self.g.Settings.GetInt(s.Address, int16(s.Default)))
	} else {
		v = int(self.g.Settings.GetLong(s.Address, int32(s.Default)))
	}
	// stale value from previous config
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	return v
}

func (self *Panel) putInt(s *ui_config.Slider, v int) error {
	if intFootprint(s) == 3 {
		return self.g.Settings.PutInt(s.Address, int16(v))
	}
	return self.g.Settings.PutLong(s.Address, int32(v))
}

func (self *Panel) intSliderCommand(s *ui_config.Slider) (ui.CommandFunc, error) {
	if s.Step <= 0 || s.Min > s.Max || s.Default < s.Min || s.Default > s.Max {
		return nil, errors.NotValidf("slider=%s min=%d max=%d step=%d default=%d", s.Name, s.Min, s.Max, s.Step, s.Default)
	}
	if err := self.checkAddress(s.Address, intFootprint(s)); err != nil {
		return nil, errors.Annotatef(err, "slider=%s", s.Name)
	}
	apply, err := self.apply(s.Apply)
	if err != nil {
		return nil, errors.Annotatef(err, "slider=%s", s.Name)
	}
	label := s.Label
	if label == "" {
		label = s.Name
	}

	return func(ctx context.Context) error {
		initial := self.getInt(s)
		errs := make([]error, 0)
		err := self.ui.Slider(ctx, ui.IntSlider{Min: s.Min, Max: s.Max, Step: s.Step, Initial: initial, Label: label},
			func(o ui.SliderOutcome, v int) {
				switch o {
				case ui.SliderChanged:
					if err := apply(float64(v)); err != nil {
						self.g.Log.Errorf("slider=%s apply=%s err=%v", s.Name, s.Apply, err)
					}
				case ui.SliderSet:
					self.g.Log.Debugf("slider=%s set=%d", s.Name, v)
					if err := self.putInt(s, v); err != nil {
						errs = append(errs, errors.Annotatef(err, "slider=%s store", s.Name))
					}
				case ui.SliderCancelled:
					self.g.Log.Debugf("slider=%s cancelled", s.Name)
					if err := apply(float64(initial)); err != nil {
						errs = append(errs, errors.Annotatef(err, "slider=%s restore", s.Name))
					}
				}
			})
		if err != nil {
			return err
		}
		if len(errs) != 0 {
			return errs[0]
		}
		return nil
	}, nil
}

func (self *Panel) floatSliderCommand(s *ui_config.FloatSlider) (ui.CommandFunc, error) {
	if s.Step <= 0 || s.Min > s.Max || s.Default < s.Min || s.Default > s.Max || s.Digits < 0 {
		return nil, errors.NotValidf("float_slider=%s min=%g max=%g step=%g default=%g", s.Name, s.Min, s.Max, s.Step, s.Default)
	}
	if err := self.checkAddress(s.Address, 5); err != nil {
		return nil, errors.Annotatef(err, "float_slider=%s", s.Name)
	}
	apply, err := self.apply(s.Apply)
	if err != nil {
		return nil, errors.Annotatef(err, "float_slider=%s", s.Name)
	}
	label := s.Label
	if label == "" {
		label = s.Name
	}

	return func(ctx context.Context) error {
		initial := math.Max(s.Min, math.Min(s.Max, self.g.Settings.GetFloat(s.Address, s.Default)))
		errs := make([]error, 0)
		fs := ui.FloatSlider{Min: s.Min, Max: s.Max, Step: s.Step, Initial: initial, Label: label, Digits: s.Digits}
		err := self.ui.FloatSlider(ctx, fs, func(o ui.SliderOutcome, v float64) {
			switch o {
			case ui.SliderChanged:
				if err := apply(v); err != nil {
					self.g.Log.Errorf("float_slider=%s apply=%s err=%v", s.Name, s.Apply, err)
				}
			case ui.SliderSet:
				self.g.Log.Debugf("float_slider=%s set=%g", s.Name, v)
				if err := self.g.Settings.PutFloat(s.Address, v); err != nil {
					errs = append(errs, errors.Annotatef(err, "float_slider=%s store", s.Name))
				}
			case ui.SliderCancelled:
				if err := apply(initial); err != nil {
					errs = append(errs, errors.Annotatef(err, "float_slider=%s restore", s.Name))
				}
			}
		})
		if err != nil {
			return err
		}
		if len(errs) != 0 {
			return errs[0]
		}
		return nil
	}, nil
}

func (self *Panel) toggle(name string) (ui.ToggleFunc, error) {
	var t *ui_config.Toggle
	for i := range self.config.Toggles {
		if self.config.Toggles[i].Name == name {
			t = &self.config.Toggles[i]
			break
		}
	}
	if t == nil {
		return nil, errors.NotFoundf("toggle=%s", name)
	}
	if len(t.States) == 0 || len(t.States) > 0xff {
		return nil, errors.NotValidf("toggle=%s states=%d", name, len(t.States))
	}
	if err := self.checkAddress(t.Address, 2); err != nil {
		return nil, errors.Annotatef(err, "toggle=%s", name)
	}

	return func(advance bool) string {
		idx := int(self.g.Settings.GetByte(t.Address, 0))
		if idx >= len(t.States) {
			idx = 0
		}
		if advance {
			idx = (idx + 1) % len(t.States)
			if err := self.g.Settings.PutByte(t.Address, byte(idx)); err != nil {
				self.g.Log.Errorf("toggle=%s store err=%v", name, err)
			}
		}
		return t.States[idx]
	}, nil
}

// about shows QR code of about text until any button is pushed.
func (self *Panel) about(ctx context.Context) error {
	text := self.config.About.Text
	if text == "" {
		text = "panel " + self.g.BuildVersion
	}
	if err := self.display.QR(text, false); err != nil {
		return errors.Annotate(err, "about")
	}
	for {
		e, err := self.ui.WaitEvent(ctx)
		if err != nil {
			return err
		}
		if e.Phase == types.PhasePushed {
			return nil
		}
	}
}

func (self *Panel) settingsReset(ctx context.Context) error {
	if err := self.g.Settings.ResetAll(); err != nil {
		return errors.Annotate(err, "settings reset")
	}
	return self.ApplyStored()
}
