// Package cli implements the quintctl commands against an injected
// transport and output sink, so they can run against a fake device in
// tests and a silent sink where needed.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/upstools/quintctl/internal/catalog"
	"github.com/upstools/quintctl/internal/decode"
	"github.com/upstools/quintctl/internal/scan"
)

// Transport is the register access the commands need.
type Transport interface {
	ReadWords(addr, count uint16) ([]uint16, error)
	WriteWords(addr uint16, values []uint16) error
}

// App binds the catalog, the transport and the output stream.
type App struct {
	Catalog   *catalog.Catalog
	Transport Transport
	Out       io.Writer

	// GetPace is the delay between repeated get passes.
	GetPace time.Duration
}

// Dump reads every catalog entry once and prints its decoded value.
// Entries that fail to read are skipped; the transport already logged
// the diagnostic.
func (a *App) Dump(raw bool) {
	for _, def := range a.Catalog.Defs() {
		words, err := a.Transport.ReadWords(def.Addr, def.Length)
		if err != nil {
			continue
		}

		if raw {
			if def.Unit != "" {
				fmt.Fprintf(a.Out, "%s: %v %s\n", def.Name, words, def.Unit)
			} else {
				fmt.Fprintf(a.Out, "%s: %v\n", def.Name, words)
			}
			continue
		}

		v := decode.Decode(def, def.Addr, decode.Assemble(words))
		fmt.Fprintln(a.Out, v.String())
	}
}

// DumpAll scans [start, end) and prints known registers and any
// unknown address that does not read as the unpopulated sentinel.
func (a *App) DumpAll(start, end uint16) error {
	return scan.Scan(a.Transport, a.Catalog, start, end, func(rd scan.Reading) {
		v := decode.Decode(rd.Def, rd.Addr, rd.Raw)
		fmt.Fprintln(a.Out, v.String())
	})
}

// Get resolves each target and prints its decoded value. The whole
// target list repeats as a unit: repeat times when positive, forever
// when negative. Unresolvable targets degrade to a raw single-word
// read when they parse as an address.
func (a *App) Get(targets []string, repeat int) error {
	if len(targets) == 0 {
		return fmt.Errorf("get: missing register name or address")
	}

	pace := a.GetPace
	if pace == 0 {
		pace = 100 * time.Millisecond
	}

	for repeat != 0 {
		for _, target := range targets {
			a.getOne(target)
		}

		if repeat > 0 {
			repeat--
		}
		if repeat != 0 {
			time.Sleep(pace)
		}
	}
	return nil
}

func (a *App) getOne(target string) {
	if def, ok := a.Catalog.Lookup(target); ok {
		words, err := a.Transport.ReadWords(def.Addr, def.Length)
		if err != nil {
			return
		}
		v := decode.Decode(def, def.Addr, decode.Assemble(words))
		fmt.Fprintln(a.Out, v.String())
		return
	}

	addr, ok := catalog.ParseAddr(target)
	if !ok {
		log.Errorf("unknown register %q", target)
		return
	}

	words, err := a.Transport.ReadWords(addr, 1)
	if err != nil {
		return
	}
	v := decode.Decode(nil, addr, uint64(words[0]))
	fmt.Fprintln(a.Out, v.String())
}

// Set resolves the target and writes a single word. A target that is
// neither a catalog name nor a parseable address is an error; write
// targets are always one word wide.
func (a *App) Set(target, value string) error {
	v, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return fmt.Errorf("set: value %q: %w", value, err)
	}

	addr, ok := resolveAddr(a.Catalog, target)
	if !ok {
		return fmt.Errorf("set: register %q not found", target)
	}

	return a.Transport.WriteWords(addr, []uint16{uint16(v)})
}

func resolveAddr(cat *catalog.Catalog, target string) (uint16, bool) {
	if def, ok := cat.Lookup(target); ok {
		return def.Addr, true
	}
	return catalog.ParseAddr(target)
}
