package arbitrage

import (
	"math"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// sweepThreshold bounds the dedup map: once it grows past this many entries
// a full sweep of expired keys runs on the next insert.
const sweepThreshold = 4096

type dedupKey struct {
	subjectID string
	kind      domain.OpportunityKind
	profit    float64
}

// deduper suppresses repeat emissions of the same opportunity within a
// sliding window. Two sightings collide when subject, kind and the profit
// fraction rounded to the configured precision all match.
type deduper struct {
	window     time.Duration
	scale      float64
	seen       map[dedupKey]time.Time
	suppressed uint64
}

func newDeduper(window time.Duration, precision int) *deduper {
	return &deduper{
		window: window,
		scale:  math.Pow(10, float64(precision)),
		seen:   make(map[dedupKey]time.Time),
	}
}

// Suppress records a sighting and reports whether it repeats one still
// inside the window. Expired entries are evicted lazily on collision, plus a
// full sweep when the map outgrows sweepThreshold.
func (d *deduper) Suppress(subjectID string, kind domain.OpportunityKind, profit float64, now time.Time) bool {
	key := dedupKey{
		subjectID: subjectID,
		kind:      kind,
		profit:    math.Round(profit*d.scale) / d.scale,
	}
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		d.suppressed++
		return true
	}
	if len(d.seen) > sweepThreshold {
		for k, last := range d.seen {
			if now.Sub(last) >= d.window {
				delete(d.seen, k)
			}
		}
	}
	d.seen[key] = now
	return false
}
