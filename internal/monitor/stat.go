package monitor

import "math"

// RunningStat is an incremental mean and variance. With a positive
// maxTrackable the sample count stops growing at that value, so older
// samples are progressively forgotten.
type RunningStat struct {
	maxTrackable int
	n            int
	mean         float64
	s            float64
}

// NewRunningStat creates a stat. maxTrackable <= 0 tracks without limit.
func NewRunningStat(maxTrackable int) RunningStat {
	return RunningStat{maxTrackable: maxTrackable}
}

// Push adds one sample.
func (r *RunningStat) Push(x float64) {
	if r.maxTrackable <= 0 || r.n < r.maxTrackable {
		r.n++
	}
	if r.n == 1 {
		r.mean = x
		r.s = 0
		return
	}
	prev := r.mean
	r.mean = prev + (x-prev)/float64(r.n)
	r.s += (x - prev) * (x - r.mean)
}

// N returns the effective sample count.
func (r *RunningStat) N() int { return r.n }

// Mean returns the running mean, zero before the first sample.
func (r *RunningStat) Mean() float64 { return r.mean }

// Variance returns the sample variance, zero with fewer than two samples.
func (r *RunningStat) Variance() float64 {
	if r.n < 2 {
		return 0
	}
	return r.s / float64(r.n-1)
}

// Std returns the sample standard deviation.
func (r *RunningStat) Std() float64 {
	return math.Sqrt(r.Variance())
}

// Reset clears all samples.
func (r *RunningStat) Reset() {
	r.n, r.mean, r.s = 0, 0, 0
}

// RunningStatFilter tracks every sample in Raw and only the samples that
// did not widen Raw's spread in Filtered. Filtered is the outlier-resistant
// estimate.
type RunningStatFilter struct {
	Raw      RunningStat
	Filtered RunningStat
}

// NewRunningStatFilter creates a filter whose stats cap at maxTrackable.
func NewRunningStatFilter(maxTrackable int) RunningStatFilter {
	return RunningStatFilter{
		Raw:      NewRunningStat(maxTrackable),
		Filtered: NewRunningStat(maxTrackable),
	}
}

// PushAndUpdate adds x to Raw and, if the raw spread did not grow, to
// Filtered.
func (f *RunningStatFilter) PushAndUpdate(x float64) {
	before := f.Raw.Std()
	f.Raw.Push(x)
	if f.Raw.Std()-before <= 0 {
		f.Filtered.Push(x)
	}
}
