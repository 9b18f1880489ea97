// Package catalog holds the declarative register table of the UPS:
// which addresses exist, how wide they are and how their raw words
// decode into display values.
package catalog

import (
	"fmt"
	"strconv"
)

// Kind selects the decode rule for a register.
type Kind int

const (
	// Raw reports the plain numeric value (with unit, if any).
	Raw Kind = iota
	// Bool reports on/off unless a ValueMap overrides the polarity.
	Bool
	// State maps the value to a label via ValueMap or Classify.
	State
	// Int reports the numeric value with its unit.
	Int
	// Bits reports the value plus one label per set bit.
	Bits
)

// Access marks whether a register is a valid write target.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

// BitLabel names a single bit position of a Bits register.
type BitLabel struct {
	Bit   uint
	Label string
}

// Def is one immutable catalog entry.
type Def struct {
	Name   string
	Addr   uint16
	Length uint16 // word count; 0 is normalized to 1
	Kind   Kind

	// ValueMap overrides the numeric display for specific raw values.
	// It applies to every kind, including Bool (some registers invert
	// polarity, e.g. 0=on 1=off).
	ValueMap map[uint64]string

	// Classify maps a raw value to a label for State registers whose
	// mapping is piecewise rather than tabular.
	Classify func(uint64) string

	// Bits names bit positions for Bits registers. Indexes must be
	// unique; duplicates are a catalog authoring error.
	Bits []BitLabel

	Unit        string
	Min, Max    uint64 // documented physical bounds, informational only
	Access      Access
	Description string
}

// Catalog is an ordered, validated register table. It is built once
// and never mutated.
type Catalog struct {
	defs   []*Def
	byName map[string]*Def
	byAddr map[uint16]*Def
}

// New validates the defs and builds the lookup indexes. Duplicate
// names, duplicate addresses and duplicate bit indexes within one
// entry are authoring bugs and fail construction.
func New(defs []Def) (*Catalog, error) {
	c := &Catalog{
		defs:   make([]*Def, 0, len(defs)),
		byName: make(map[string]*Def, len(defs)),
		byAddr: make(map[uint16]*Def, len(defs)),
	}

	for i := range defs {
		d := defs[i]
		if d.Name == "" {
			return nil, fmt.Errorf("catalog: entry at 0x%04x has no name", d.Addr)
		}
		if d.Length == 0 {
			d.Length = 1
		}
		if prev, ok := c.byName[d.Name]; ok {
			return nil, fmt.Errorf("catalog: duplicate name %q (0x%04x and 0x%04x)",
				d.Name, prev.Addr, d.Addr)
		}
		if prev, ok := c.byAddr[d.Addr]; ok {
			return nil, fmt.Errorf("catalog: address 0x%04x used by both %q and %q",
				d.Addr, prev.Name, d.Name)
		}

		seen := make(map[uint]struct{}, len(d.Bits))
		for _, b := range d.Bits {
			if _, ok := seen[b.Bit]; ok {
				return nil, fmt.Errorf("catalog: %q: duplicate bit %d", d.Name, b.Bit)
			}
			seen[b.Bit] = struct{}{}
		}

		def := &d
		c.defs = append(c.defs, def)
		c.byName[d.Name] = def
		c.byAddr[d.Addr] = def
	}

	return c, nil
}

// Defs returns the entries in authoring order (dump order).
func (c *Catalog) Defs() []*Def { return c.defs }

// ByName looks up an entry by its symbolic name.
func (c *Catalog) ByName(name string) (*Def, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// ByAddr looks up an entry by its register address.
func (c *Catalog) ByAddr(addr uint16) (*Def, bool) {
	d, ok := c.byAddr[addr]
	return d, ok
}

// Lookup resolves a user-supplied target: symbolic name first, then a
// numeric address literal (0x-prefixed hex or decimal).
func (c *Catalog) Lookup(target string) (*Def, bool) {
	if d, ok := c.byName[target]; ok {
		return d, true
	}
	if addr, ok := ParseAddr(target); ok {
		return c.ByAddr(addr)
	}
	return nil, false
}

// ParseAddr parses a register address literal with standard numeric
// prefixes (0x hex, 0 octal, decimal otherwise).
func ParseAddr(s string) (uint16, bool) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// Range is a half-open [Start, End) register address interval.
type Range struct {
	Start uint16
	End   uint16
}
