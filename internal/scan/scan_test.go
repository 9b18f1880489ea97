package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstools/quintctl/internal/catalog"
)

// fakeReader serves reads from a sparse register image. Addresses
// without an entry read as the sentinel, like real unused address
// space does.
type fakeReader struct {
	regs    map[uint16]uint16
	failAt  uint16
	failSet bool

	reads []readCall
}

type readCall struct {
	addr  uint16
	count uint16
}

func (f *fakeReader) ReadWords(addr, count uint16) ([]uint16, error) {
	f.reads = append(f.reads, readCall{addr, count})

	out := make([]uint16, count)
	for i := range out {
		a := addr + uint16(i)
		if f.failSet && a == f.failAt {
			return nil, errors.New("transport error")
		}
		if v, ok := f.regs[a]; ok {
			out[i] = v
		} else {
			out[i] = Sentinel
		}
	}
	return out, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Def{
		{Name: "SINGLE", Addr: 0x7400, Kind: catalog.Int},
		{Name: "WIDE", Addr: 0x7402, Length: 2, Kind: catalog.Raw},
		{Name: "ALLONES", Addr: 0x7405, Kind: catalog.Int},
	})
	require.NoError(t, err)
	return c
}

func TestScan_GroupsAndSuppressesSentinel(t *testing.T) {
	cat := testCatalog(t)
	r := &fakeReader{regs: map[uint16]uint16{
		0x7400: 11,
		0x7401: 0x1234, // unmatched, real value
		0x7402: 42,     // WIDE low word
		0x7403: 7,      // WIDE high word
		// 0x7404 unmatched, sentinel
		0x7405: 0xFFFF, // cataloged: sentinel is a real value here
	}}

	var got []Reading
	err := Scan(r, cat, 0x7400, 0x7406, func(rd Reading) { got = append(got, rd) })
	require.NoError(t, err)

	require.Len(t, got, 4)

	assert.Equal(t, uint16(0x7400), got[0].Addr)
	assert.Equal(t, uint64(11), got[0].Raw)

	assert.Nil(t, got[1].Def)
	assert.Equal(t, uint16(0x7401), got[1].Addr)
	assert.Equal(t, uint64(0x1234), got[1].Raw)

	assert.Equal(t, "WIDE", got[2].Def.Name)
	assert.Equal(t, uint64(42)+7*65536, got[2].Raw)

	// 0x7404 read the sentinel and was suppressed; 0x7405 is a
	// catalog match, so 0xFFFF passes through.
	assert.Equal(t, uint16(0x7405), got[3].Addr)
	assert.Equal(t, uint64(0xFFFF), got[3].Raw)

	// The two-word entry was read as one batched request.
	assert.Contains(t, r.reads, readCall{0x7402, 2})
}

func TestScan_AbortsOnReadFailure(t *testing.T) {
	cat := testCatalog(t)
	r := &fakeReader{
		regs: map[uint16]uint16{
			0x7400: 1,
			0x7401: 5,
		},
		failAt:  0x7402,
		failSet: true,
	}

	var got []Reading
	err := Scan(r, cat, 0x7400, 0x7406, func(rd Reading) { got = append(got, rd) })
	require.Error(t, err)

	// Everything before the failure was emitted.
	require.Len(t, got, 2)
	assert.Equal(t, uint16(0x7401), got[1].Addr)
}

func TestWalk_GroupsBuffer(t *testing.T) {
	cat := testCatalog(t)
	words := []uint16{11, 0xFFFF, 42, 7, 0xFFFF, 0xFFFF}

	var got []Reading
	Walk(cat, 0x7400, words, func(rd Reading) { got = append(got, rd) })

	// Walk emits every address, sentinel included; six words collapse
	// into five logical readings through the two-word entry.
	require.Len(t, got, 5)
	assert.Equal(t, uint64(11), got[0].Raw)
	assert.Equal(t, uint64(0xFFFF), got[1].Raw)
	assert.Equal(t, uint64(42)+7*65536, got[2].Raw)
	assert.Equal(t, uint16(0x7404), got[3].Addr)
	assert.Equal(t, uint16(0x7405), got[4].Addr)
	assert.Equal(t, "ALLONES", got[4].Def.Name)
}

func TestWalk_TruncatedTail(t *testing.T) {
	cat := testCatalog(t)

	// Buffer ends inside the two-word entry at 0x7402.
	words := []uint16{11, 5, 42}

	var got []Reading
	Walk(cat, 0x7400, words, func(rd Reading) { got = append(got, rd) })

	require.Len(t, got, 3)
	assert.Equal(t, "WIDE", got[2].Def.Name)
	assert.Equal(t, uint64(42), got[2].Raw)
}

func TestReadRange_ChunksCoverSpanExactly(t *testing.T) {
	r := &fakeReader{regs: map[uint16]uint16{
		0x7400: 1,
		0x7425: 2,
	}}

	buf, err := ReadRange(r, 0x7400, 0x7426, 16)
	require.NoError(t, err)
	require.Len(t, buf, 0x26)

	assert.Equal(t, uint16(1), buf[0])
	assert.Equal(t, uint16(2), buf[0x25])

	// 0x26 words in 16-word chunks: 16 + 16 + 6.
	require.Len(t, r.reads, 3)
	assert.Equal(t, readCall{0x7400, 16}, r.reads[0])
	assert.Equal(t, readCall{0x7410, 16}, r.reads[1])
	assert.Equal(t, readCall{0x7420, 6}, r.reads[2])
}

func TestReadRange_PropagatesError(t *testing.T) {
	r := &fakeReader{failAt: 0x7410, failSet: true}

	_, err := ReadRange(r, 0x7400, 0x7420, 16)
	require.Error(t, err)
}

func TestReadRange_EmptySpan(t *testing.T) {
	r := &fakeReader{}
	buf, err := ReadRange(r, 0x7400, 0x7400, 16)
	require.NoError(t, err)
	assert.Empty(t, buf)
	assert.Empty(t, r.reads)
}
