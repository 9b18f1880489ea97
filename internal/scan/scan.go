// Package scan walks contiguous register address ranges, grouping
// words into logical values according to the catalog.
package scan

import (
	"fmt"

	"github.com/upstools/quintctl/internal/catalog"
	"github.com/upstools/quintctl/internal/decode"
)

// Reader abstracts the register reads the scanner needs. The scanner
// depends on geometry only.
type Reader interface {
	ReadWords(addr, count uint16) ([]uint16, error)
}

// Sentinel is what the device's unused address space reads as. A
// single unmatched word equal to Sentinel means "no register here",
// not data.
const Sentinel uint16 = 0xFFFF

// Reading is one logical register sample. Def is nil for addresses
// without a catalog entry.
type Reading struct {
	Addr uint16
	Def  *catalog.Def
	Raw  uint64
}

// Scan reads [start, end) address by address. Catalog entries are read
// as one batched request of Length words and advance the cursor by
// Length; unmatched addresses are read one word at a time and are
// suppressed when they hold the sentinel. Catalog-matched addresses
// never apply sentinel suppression, an entry may define 65535 itself.
//
// A failed read aborts the scan; partial results before the failure
// have already been emitted.
func Scan(r Reader, cat *catalog.Catalog, start, end uint16, fn func(Reading)) error {
	for addr := start; addr < end; {
		if def, ok := cat.ByAddr(addr); ok {
			words, err := r.ReadWords(addr, def.Length)
			if err != nil {
				return fmt.Errorf("scan 0x%04x: %w", addr, err)
			}
			fn(Reading{Addr: addr, Def: def, Raw: decode.Assemble(words)})
			addr += def.Length
			continue
		}

		words, err := r.ReadWords(addr, 1)
		if err != nil {
			return fmt.Errorf("scan 0x%04x: %w", addr, err)
		}
		if words[0] != Sentinel {
			fn(Reading{Addr: addr, Raw: uint64(words[0])})
		}
		addr++
	}
	return nil
}

// Walk applies the same catalog-aware grouping as Scan to an already
// read buffer starting at start. Every address is emitted; suppression
// is the caller's concern (a steady sentinel never diffs anyway).
func Walk(cat *catalog.Catalog, start uint16, words []uint16, fn func(Reading)) {
	for idx := 0; idx < len(words); {
		addr := start + uint16(idx)

		def, ok := cat.ByAddr(addr)
		if !ok {
			fn(Reading{Addr: addr, Raw: uint64(words[idx])})
			idx++
			continue
		}

		n := int(def.Length)
		if idx+n > len(words) {
			// Truncated tail of the buffer; assemble what is there.
			n = len(words) - idx
		}
		fn(Reading{Addr: addr, Def: def, Raw: decode.Assemble(words[idx : idx+n])})
		idx += int(def.Length)
	}
}

// ReadRange reads [start, end) in requests of at most chunk words and
// concatenates the results so the buffer covers the span exactly.
func ReadRange(r Reader, start, end uint16, chunk uint16) ([]uint16, error) {
	if chunk == 0 {
		chunk = 16
	}

	span := int(end) - int(start)
	if span <= 0 {
		return nil, nil
	}

	buf := make([]uint16, 0, span)
	for len(buf) < span {
		count := uint16(span - len(buf))
		if count > chunk {
			count = chunk
		}
		words, err := r.ReadWords(start+uint16(len(buf)), count)
		if err != nil {
			return nil, fmt.Errorf("read 0x%04x+%d: %w", start+uint16(len(buf)), count, err)
		}
		buf = append(buf, words...)
	}
	return buf, nil
}
