package chaos

import (
	"math"
	"math/rand"
	"time"
)

// DistributionKind selects how latency samples are drawn.
type DistributionKind string

const (
	// DistUniform draws uniformly between Min and Max.
	DistUniform DistributionKind = "uniform"
	// DistNormal draws from a bell curve. Min holds the mean and Max the
	// standard deviation.
	DistNormal DistributionKind = "normal"
	// DistExponential draws from an exponential curve with mean
	// (Min+Max)/2, clamped to [Min, Max].
	DistExponential DistributionKind = "exponential"
)

// LatencyDistribution describes the range and shape of injected delays.
type LatencyDistribution struct {
	Min          time.Duration    `json:"min" yaml:"min" mapstructure:"min"`
	Max          time.Duration    `json:"max" yaml:"max" mapstructure:"max"`
	Distribution DistributionKind `json:"distribution" yaml:"distribution" mapstructure:"distribution"`

	// rand is replaceable in tests. Returns a value in [0, 1).
	rand func() float64
}

func (d LatencyDistribution) float() float64 {
	if d.rand != nil {
		return d.rand()
	}
	return rand.Float64()
}

// DefaultLatencyDistribution returns a uniform 100-500ms delay.
func DefaultLatencyDistribution() LatencyDistribution {
	return LatencyDistribution{
		Min:          100 * time.Millisecond,
		Max:          500 * time.Millisecond,
		Distribution: DistUniform,
	}
}

// ConstantLatency returns a fixed delay with no variation.
func ConstantLatency(d time.Duration) LatencyDistribution {
	return LatencyDistribution{Min: d, Max: d, Distribution: DistUniform}
}

// UniformLatency returns a delay drawn uniformly from [minDelay, maxDelay].
func UniformLatency(minDelay, maxDelay time.Duration) LatencyDistribution {
	return LatencyDistribution{Min: minDelay, Max: maxDelay, Distribution: DistUniform}
}

// NormalLatency returns a bell-curve delay around mean.
func NormalLatency(mean, stddev time.Duration) LatencyDistribution {
	return LatencyDistribution{Min: mean, Max: stddev, Distribution: DistNormal}
}

// Sample draws one delay from the distribution. Samples are never negative.
func (d LatencyDistribution) Sample() time.Duration {
	switch d.Distribution {
	case DistNormal:
		// Box-Muller transform. 1-float keeps the log argument in (0, 1].
		u1 := 1 - d.float()
		u2 := d.float()
		z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		sample := d.Min.Seconds() + d.Max.Seconds()*z0
		if sample < 0 {
			sample = 0
		}
		return time.Duration(sample * float64(time.Second))

	case DistExponential:
		mean := (d.Min.Seconds() + d.Max.Seconds()) / 2
		if mean <= 0 {
			return d.Min
		}
		u := 1 - d.float()
		sample := -math.Log(u) * mean

		if sample < d.Min.Seconds() {
			sample = d.Min.Seconds()
		}
		if sample > d.Max.Seconds() {
			sample = d.Max.Seconds()
		}
		return time.Duration(sample * float64(time.Second))

	default:
		if d.Max <= d.Min {
			return d.Min
		}
		return d.Min + time.Duration(d.float()*float64(d.Max-d.Min))
	}
}
