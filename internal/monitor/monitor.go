// Package monitor implements the change-detection polling loop: it
// re-reads the configured register ranges, diffs every decoded value
// against its prior and reports only meaningful transitions.
package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/upstools/quintctl/internal/catalog"
	"github.com/upstools/quintctl/internal/decode"
	"github.com/upstools/quintctl/internal/scan"
)

// Sink receives one rendered line per reported change.
type Sink func(line string)

// Config is the monitor's immutable runtime configuration. The
// threshold fields are optional; nil means the check is not applied.
type Config struct {
	Ranges []catalog.Range
	Skip   map[uint16]struct{}

	// MinChangeRel suppresses a change unless |new-prior|/prior
	// exceeds it. Only applied when the prior value is nonzero.
	MinChangeRel *float64

	// MinChangeAbs suppresses a change unless |new-prior| exceeds it.
	// Applied last, independent of the relative check's result.
	MinChangeAbs *float64

	Interval   time.Duration
	ChunkWords uint16
}

// State holds the last observed value per address plus the warm-up
// flag. It is created empty by the caller and owned by one monitor for
// the process lifetime.
type State struct {
	prior    map[uint16]uint64
	warmedUp bool
}

// NewState returns an empty change state.
func NewState() *State {
	return &State{prior: make(map[uint16]uint64)}
}

// Monitor drives the polling loop. Single-threaded; it blocks on
// transport reads and on the inter-cycle sleep.
type Monitor struct {
	cfg    Config
	cat    *catalog.Catalog
	reader scan.Reader
	sink   Sink
	state  *State
}

// New validates the config and builds a monitor.
func New(cfg Config, cat *catalog.Catalog, r scan.Reader, sink Sink, state *State) (*Monitor, error) {
	if len(cfg.Ranges) == 0 {
		return nil, errors.New("monitor: at least one range required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if sink == nil {
		return nil, errors.New("monitor: sink required")
	}
	if state == nil {
		return nil, errors.New("monitor: state required")
	}
	return &Monitor{cfg: cfg, cat: cat, reader: r, sink: sink, state: state}, nil
}

// Cycle performs exactly one pass over all ranges. A failed read
// aborts the cycle immediately: diffing a partial or misaligned buffer
// would produce false conclusions. Priors recorded earlier in the same
// cycle are kept.
func (m *Monitor) Cycle(now time.Time) error {
	for _, rg := range m.cfg.Ranges {
		words, err := scan.ReadRange(m.reader, rg.Start, rg.End, m.cfg.ChunkWords)
		if err != nil {
			return err
		}

		scan.Walk(m.cat, rg.Start, words, func(rd scan.Reading) {
			if _, skip := m.cfg.Skip[rd.Addr]; skip {
				return
			}

			prior, seen := m.state.prior[rd.Addr]
			if m.state.warmedUp && seen && m.shouldReport(prior, rd.Raw) {
				v := decode.Decode(rd.Def, rd.Addr, rd.Raw)
				m.sink(now.Format("15:04:05") + " " + v.String())
			}

			// The new value becomes the baseline whether or not it
			// was reported.
			m.state.prior[rd.Addr] = rd.Raw
		})
	}

	m.state.warmedUp = true
	return nil
}

// shouldReport applies the suppression rules from the monitor config.
func (m *Monitor) shouldReport(prior, now uint64) bool {
	changed := now != prior

	delta := math.Abs(float64(now) - float64(prior))

	if m.cfg.MinChangeRel != nil && prior != 0 {
		changed = delta/float64(prior) > *m.cfg.MinChangeRel
	}
	if m.cfg.MinChangeAbs != nil {
		changed = delta > *m.cfg.MinChangeAbs
	}
	return changed
}

// Run polls until the context is cancelled. Cycle failures are logged
// and the loop keeps going; the transport redials on a later cycle.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := m.Cycle(time.Now()); err != nil {
			log.WithError(err).Error("poll cycle aborted")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
