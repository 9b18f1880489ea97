// quintctl talks to a Phoenix Contact QUINT4 DC UPS over Modbus RTU:
// dump and decode its registers, watch them for changes, or read and
// write individual registers.
//
// Usage:
//
//	quintctl [flags] dump|dumpall|monitor|get|set [args]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/upstools/quintctl/internal/catalog"
	"github.com/upstools/quintctl/internal/cli"
	"github.com/upstools/quintctl/internal/config"
	"github.com/upstools/quintctl/internal/device"
	"github.com/upstools/quintctl/internal/monitor"
)

// dumpall covers the I/O data block.
const (
	dumpAllStart uint16 = 0x7400
	dumpAllEnd   uint16 = 0x7500
)

// addrList collects repeatable, comma-separated address flags.
type addrList []string

func (l *addrList) String() string { return strings.Join(*l, ",") }

func (l *addrList) Set(v string) error {
	*l = append(*l, strings.Split(v, ",")...)
	return nil
}

func main() {
	var (
		devFlag = flag.String("D", "", "serial device (overrides config file)")
		cfgPath = flag.String("config", "", "path to a YAML config file")
		raw     = flag.Bool("raw", false, "dump: print raw register words instead of decoded values")
		minRel  = flag.Float64("min-change-rel", 0, "monitor: only report changes larger than this fraction of the prior value")
		minAbs  = flag.Float64("min-change-abs", 0, "monitor: only report changes larger than this absolute delta")
		repeat  = flag.Int("repeat", 1, "get: number of passes over the targets, negative repeats forever")
		verbose = flag.Bool("v", false, "verbose logging")

		skipAddrs addrList
	)
	flag.Var(&skipAddrs, "skip-addr", "monitor: registers to skip, by name or address (comma separated, repeatable)")
	flag.Parse()

	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}

	// Flags set on the command line override the config file.
	relSet, absSet := false, false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "D":
			cfg.Serial.Device = *devFlag
		case "min-change-rel":
			relSet = true
		case "min-change-abs":
			absSet = true
		}
	})
	if relSet {
		cfg.Monitor.MinChangeRel = minRel
	}
	if absSet {
		cfg.Monitor.MinChangeAbs = minAbs
	}

	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	action := "dump"
	args := flag.Args()
	if len(args) > 0 {
		action = args[0]
		args = args[1:]
	}

	// --------------------
	// Connect
	// --------------------

	cat := catalog.Quint24DC()

	ups, err := device.Open(device.Config{
		Device:   cfg.Serial.Device,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		Parity:   cfg.Serial.Parity,
		StopBits: cfg.Serial.StopBits,
		SlaveID:  cfg.Serial.SlaveID,
		Timeout:  time.Duration(cfg.Serial.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer ups.Close()

	app := &cli.App{Catalog: cat, Transport: ups, Out: os.Stdout}

	// --------------------
	// Dispatch
	// --------------------

	switch action {
	case "dump":
		app.Dump(*raw)

	case "dumpall":
		if err := app.DumpAll(dumpAllStart, dumpAllEnd); err != nil {
			log.WithError(err).Error("dumpall aborted")
		}

	case "monitor":
		mon, err := monitor.New(monitor.Config{
			Ranges:       catalog.MonitorRanges(),
			Skip:         buildSkip(cat, cfg.Monitor.SkipAddrs, skipAddrs),
			MinChangeRel: cfg.Monitor.MinChangeRel,
			MinChangeAbs: cfg.Monitor.MinChangeAbs,
			Interval:     time.Duration(cfg.Monitor.IntervalMs) * time.Millisecond,
			ChunkWords:   cfg.Monitor.ChunkWords,
		}, cat, ups, func(line string) { fmt.Println(line) }, monitor.NewState())
		if err != nil {
			log.Fatalf("monitor setup failed: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Run only returns when the context ends; a signal is the
		// normal way out.
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("monitor stopped: %v", err)
		}

	case "get":
		if err := app.Get(args, *repeat); err != nil {
			log.Fatal(err)
		}

	case "set":
		if len(args) != 2 {
			log.Fatal("usage: quintctl set <name-or-addr> <value>")
		}
		if err := app.Set(args[0], args[1]); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("unknown action %q (want dump, dumpall, monitor, get or set)", action)
	}
}

// buildSkip resolves the built-in skip set plus the config file and
// command line additions into an address set.
func buildSkip(cat *catalog.Catalog, fromConfig, fromFlags []string) map[uint16]struct{} {
	skip := make(map[uint16]struct{})
	for _, a := range catalog.DefaultSkip() {
		skip[a] = struct{}{}
	}

	extra := make([]string, 0, len(fromConfig)+len(fromFlags))
	extra = append(extra, fromConfig...)
	extra = append(extra, fromFlags...)

	for _, s := range extra {
		if def, ok := cat.Lookup(s); ok {
			skip[def.Addr] = struct{}{}
			continue
		}
		if addr, ok := catalog.ParseAddr(s); ok {
			skip[addr] = struct{}{}
			continue
		}
		log.Fatalf("skip address %q is neither a register name nor an address", s)
	}
	return skip
}
