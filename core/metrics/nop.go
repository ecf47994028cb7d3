package metrics

type (
	nopCounter   struct{}
	nopHistogram struct{}
	nopTimer     struct{}
)

func (nopCounter) Inc()              {}
func (nopCounter) Add(float64)       {}
func (nopHistogram) Observe(float64) {}
func (nopTimer) ObserveDuration()    {}

// NopCounter returns a no-op Counter.
func NopCounter() Counter { return nopCounter{} }

// NopHistogram returns a no-op Histogram.
func NopHistogram() Histogram { return nopHistogram{} }

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }
