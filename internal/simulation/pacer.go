package simulation

import "time"

// Pacer spaces out the narrated steps. Pacing is purely cosmetic for a live
// demo; a zero delay turns it off entirely, which is what tests use.
type Pacer interface {
	Wait()
}

// NewDelayPacer returns a sleeping pacer, or a no-op one for d <= 0.
func NewDelayPacer(d time.Duration) Pacer {
	if d <= 0 {
		return nopPacer{}
	}
	return delayPacer{d: d}
}

type delayPacer struct {
	d time.Duration
}

func (p delayPacer) Wait() { time.Sleep(p.d) }

type nopPacer struct{}

func (nopPacer) Wait() {}
