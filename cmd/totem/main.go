package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hpcguemes/totem/cmd/totem/console"
	"github.com/hpcguemes/totem/cmd/totem/kiosk"
	"github.com/hpcguemes/totem/cmd/totem/subcmd"
	"github.com/hpcguemes/totem/internal/state"
	state_new "github.com/hpcguemes/totem/internal/state/new"
	"github.com/hpcguemes/totem/internal/tele"
	"github.com/hpcguemes/totem/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)
var modules = []subcmd.Mod{
	kiosk.Mod,
	console.Mod,
	console.MockMod,
}

func main() {
	log.SetFlags(log2.LInteractiveFlags)

	flaghelp := fmt.Sprintf("subcommand: %s", strings.Join(moduleNames(), " | "))
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [option] %s\nOptions:\n", os.Args[0], flaghelp)
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "totem.hcl", "")
	onlyVersion := flag.Bool("version", false, "print build version and exit")
	flag.Parse()

	if *onlyVersion {
		fmt.Printf("totem %s\n", BuildVersion)
		return
	}

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		log.Fatal(err)
	}
	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	}
	log.Debugf("starting command %s", mod.Name)

	ctx, g := state_new.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigch
		g.Log.Infof("signal=%v, stopping", sig)
		g.Stop()
	}()

	config := state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(err)
	}
	g.Tele.Close()
}

func moduleNames() []string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return names
}
