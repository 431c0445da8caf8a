package monitor

import "time"

// lowPass is a first-order filter whose gain follows the elapsed time
// between samples.
type lowPass struct {
	x  float64
	ts time.Duration
}

func (f *lowPass) update(in float64, dt time.Duration) float64 {
	switch {
	case f.ts <= 0:
		f.x = in
	case dt > 0:
		r := dt.Seconds() / f.ts.Seconds()
		k := r / (1 + r)
		f.x = (1-k)*f.x + k*in
	}
	return f.x
}
