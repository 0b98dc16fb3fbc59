package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/panel/cmd/panel/run"
	"github.com/temoto/panel/cmd/panel/settings"
	"github.com/temoto/panel/cmd/panel/sim"
	"github.com/temoto/panel/cmd/panel/subcmd"
	"github.com/temoto/panel/internal/state"
	"github.com/temoto/panel/internal/tele"
	"github.com/temoto/panel/log2"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	run.Mod,
	sim.Mod,
	settings.Mod,
}

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	flagset := flag.NewFlagSet("panel", flag.ContinueOnError)
	flagConfig := flagset.String("config", "panel.hcl", "")
	flagLog := flagset.String("log", "", "log file path, default stderr")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: %s [options] [command]\nCommands:\n", os.Args[0])
		for _, m := range modules {
			fmt.Fprintf(flagset.Output(), "  %-10s %s\n", m.Name, m.Usage)
		}
		fmt.Fprintf(flagset.Output(), "Options:\n")
		flagset.PrintDefaults()
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	command := flagset.Arg(0)
	if command == "" {
		command = "run"
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		flagset.Usage()
		log.Fatal(err)
	}

	if *flagLog != "" {
		f, err := os.OpenFile(*flagLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Fatal(errors.Annotate(err, "log file"))
		}
		defer f.Close()
		log = log2.NewWriter(f, log2.LDebug)
	}
	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	ctx, g := state.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion
	log.Debugf("panel version=%s command=%s", BuildVersion, mod.Name)

	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}
