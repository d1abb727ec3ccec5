package analysis

import "time"

// etaSmoothing is the weight of the newest interval in the moving average.
const etaSmoothing = 0.2

// etaEstimator keeps an exponentially weighted moving average of the time
// between completions. With parallel workers this is the effective
// per-item cost, which is what the remaining work will take.
type etaEstimator struct {
	last    time.Time
	avg     float64 // seconds
	samples int
}

func newETAEstimator(start time.Time) *etaEstimator {
	return &etaEstimator{last: start}
}

func (e *etaEstimator) observe(now time.Time) {
	interval := now.Sub(e.last).Seconds()
	e.last = now
	if e.samples == 0 {
		e.avg = interval
	} else {
		e.avg = etaSmoothing*interval + (1-etaSmoothing)*e.avg
	}
	e.samples++
}

func (e *etaEstimator) estimate(remaining int) time.Duration {
	if e.samples == 0 || remaining <= 0 {
		return 0
	}
	return time.Duration(e.avg * float64(remaining) * float64(time.Second))
}
