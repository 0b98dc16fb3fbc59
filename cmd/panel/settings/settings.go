// Interactive console for persisted settings.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/helpers/cli"
	"github.com/temoto/panel/internal/settings"
	"github.com/temoto/panel/internal/state"
)

const usage = `commands:
- get ADDR byte|int|long|float
- set ADDR byte|int|long|float VALUE
- reset ADDR
- dump
- help
ADDR is decimal or 0x hex`

var Mod = subcmd.Mod{Name: "settings", Usage: "settings console", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	// console needs settings only
	config.Hardware.Display.Driver = state.DisplayMock
	config.Hardware.Input.Gpio.Enable = false
	config.Hardware.Input.Ladder.Enable = false
	config.Hardware.Input.DevInputEvent.Enable = false
	config.Tele.Enabled = false
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	cli.MainLoop("panel-settings", func(line string) {
		out, err := Exec(g.Settings, line)
		if err != nil {
			g.Log.Errorf(errors.ErrorStack(err))
			return
		}
		if out != "" {
			fmt.Println(out)
		}
	}, complete)
	return nil
}

var suggests = []prompt.Suggest{
	{Text: "get", Description: "ADDR TYPE"},
	{Text: "set", Description: "ADDR TYPE VALUE"},
	{Text: "reset", Description: "ADDR"},
	{Text: "dump"},
	{Text: "help"},
}

var typeSuggests = []prompt.Suggest{{Text: "byte"}, {Text: "int"}, {Text: "long"}, {Text: "float"}}

func complete(d prompt.Document) []prompt.Suggest {
	words := strings.Fields(d.TextBeforeCursor())
	if len(words) == 3 || (len(words) == 2 && d.GetWordBeforeCursor() == "") {
		return prompt.FilterHasPrefix(typeSuggests, d.GetWordBeforeCursor(), true)
	}
	if len(words) > 1 {
		return nil
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

// Exec runs one console line against store, returns text to print.
func Exec(s *settings.Store, line string) (string, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", nil
	}
	switch words[0] {
	case "help", "?":
		return usage, nil

	case "dump":
		return s.Dump(), nil

	case "get":
		if len(words) != 3 {
			return "", errors.NotValidf("syntax: get ADDR TYPE")
		}
		addr, err := parseAddr(s, words[1])
		if err != nil {
			return "", err
		}
		if err = checkRange(s, addr, words[2]); err != nil {
			return "", err
		}
		if !s.Written(addr) {
			return "unwritten", nil
		}
		switch words[2] {
		case "byte":
			return strconv.Itoa(int(s.GetByte(addr, 0))), nil
		case "int":
			return strconv.Itoa(int(s.GetInt(addr, 0))), nil
		case "long":
			return strconv.Itoa(int(s.GetLong(addr, 0))), nil
		case "float":
			return strconv.FormatFloat(s.GetFloat(addr, 0), 'g', -1, 32), nil
		}
		panic("code error checkRange type=" + words[2])

	case "set":
		if len(words) != 4 {
			return "", errors.NotValidf("syntax: set ADDR TYPE VALUE")
		}
		addr, err := parseAddr(s, words[1])
		if err != nil {
			return "", err
		}
		return "", set(s, addr, words[2], words[3])

	case "reset":
		if len(words) != 2 {
			return "", errors.NotValidf("syntax: reset ADDR")
		}
		addr, err := parseAddr(s, words[1])
		if err != nil {
			return "", err
		}
		return "", s.Reset(addr)
	}
	return "", errors.NotFoundf("command=%s (try help)", words[0])
}

func set(s *settings.Store, addr int, typ, value string) error {
	switch typ {
	case "byte", "int", "long":
		bits := map[string]int{"byte": 8, "int": 16, "long": 32}[typ]
		var v int64
		var err error
		if typ == "byte" {
			var u uint64
			u, err = strconv.ParseUint(value, 0, bits)
			v = int64(u)
		} else {
			v, err = strconv.ParseInt(value, 0, bits)
		}
		if err != nil {
			return errors.NewNotValid(err, fmt.Sprintf("%s value=%s", typ, value))
		}
		if err = checkRange(s, addr, typ); err != nil {
			return err
		}
		switch typ {
		case "byte":
			return s.PutByte(addr, byte(v))
		case "int":
			return s.PutInt(addr, int16(v))
		default:
			return s.PutLong(addr, int32(v))
		}

	case "float":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return errors.NewNotValid(err, "float value="+value)
		}
		if err = checkRange(s, addr, typ); err != nil {
			return err
		}
		return s.PutFloat(addr, v)
	}
	return errors.NotValidf("type=%s", typ)
}

func parseAddr(s *settings.Store, word string) (int, error) {
	addr, err := strconv.ParseUint(word, 0, 16)
	if err != nil {
		return 0, errors.NewNotValid(err, "address="+word)
	}
	if int(addr) >= s.Size() {
		return 0, errors.NotValidf("address=%d size=%d", addr, s.Size())
	}
	return int(addr), nil
}

func checkRange(s *settings.Store, addr int, typ string) error {
	n, ok := map[string]int{
		"byte":  settings.FootprintByte,
		"int":   settings.FootprintInt,
		"long":  settings.FootprintLong,
		"float": settings.FootprintLong,
	}[typ]
	if !ok {
		return errors.NotValidf("type=%s", typ)
	}
	if addr+n > s.Size() {
		return errors.NotValidf("address=%d %s footprint=%d size=%d", addr, typ, n, s.Size())
	}
	return nil
}
