// Package decode turns raw register words into typed display values.
// All functions are pure; emitting the result is the caller's job.
package decode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/upstools/quintctl/internal/catalog"
)

// Assemble combines consecutive 16-bit words into one logical value.
// Word order is least-significant-first: the first word read is the
// low 16 bits.
func Assemble(words []uint16) uint64 {
	var v uint64
	for i, w := range words {
		v |= uint64(w) << (16 * i)
	}
	return v
}

// Value is a decoded register sample ready for display.
type Value struct {
	Def  *catalog.Def // nil for addresses with no catalog entry
	Addr uint16
	Raw  uint64

	// Text is the single-line rendering of the value.
	Text string

	// Details holds one label per set bit of a Bits register, in
	// ascending bit order.
	Details []string
}

// Decode applies the catalog entry's decode rule to a raw value. A nil
// def decodes as an anonymous raw register.
func Decode(def *catalog.Def, addr uint16, raw uint64) Value {
	v := Value{Def: def, Addr: addr, Raw: raw}

	if def == nil {
		v.Text = strconv.FormatUint(raw, 10)
		return v
	}

	// Explicit per-value overrides win over the kind rule, e.g.
	// 65535 = "not initialized" on an Int register or inverted
	// polarity on a Bool.
	if label, ok := def.ValueMap[raw]; ok {
		v.Text = label
		return v
	}
	if def.Kind == catalog.State && def.Classify != nil {
		v.Text = def.Classify(raw)
		return v
	}

	switch def.Kind {
	case catalog.Bool:
		if raw != 0 {
			v.Text = "on"
		} else {
			v.Text = "off"
		}

	case catalog.Bits:
		v.Text = strconv.FormatUint(raw, 10)
		v.Details = setBits(def.Bits, raw)

	default:
		// State without a matching map entry, Int and Raw all fall
		// back to the plain number.
		v.Text = strconv.FormatUint(raw, 10)
		if def.Unit != "" {
			v.Text += " " + def.Unit
		}
	}

	return v
}

// setBits returns the labels of all set bits, ascending by bit index.
// The catalog guarantees unique indexes but not ordering.
func setBits(labels []catalog.BitLabel, raw uint64) []string {
	sorted := make([]catalog.BitLabel, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bit < sorted[j].Bit })

	var out []string
	for _, bl := range sorted {
		if raw>>bl.Bit&1 == 1 {
			out = append(out, bl.Label)
		}
	}
	return out
}

// String renders "NAME: text" with one " - label" line per bit detail.
// Anonymous registers render as "0xADDR: value".
func (v Value) String() string {
	var b strings.Builder
	if v.Def != nil {
		b.WriteString(v.Def.Name)
	} else {
		fmt.Fprintf(&b, "0x%04x", v.Addr)
	}
	b.WriteString(": ")
	b.WriteString(v.Text)
	for _, d := range v.Details {
		b.WriteString("\n - ")
		b.WriteString(d)
	}
	return b.String()
}
