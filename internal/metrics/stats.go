package metrics

import (
	"math"
	"sort"
	"time"
)

// Summary is a basic statistics snapshot over RTT samples.
type Summary struct {
	Sent        int
	Received    int
	LossPct     float64
	AvgRTTMs    float64
	P95RTTMs    float64
	MinRTTMs    float64
	MaxRTTMs    float64
	AvgJitterMs float64
}

// Summarize computes summary metrics for the round trips of sent probes.
// Jitter is the mean absolute difference between consecutive samples.
func Summarize(rtts []time.Duration, sent int) Summary {
	if sent < len(rtts) {
		sent = len(rtts)
	}
	if len(rtts) == 0 {
		s := Summary{Sent: sent}
		if sent > 0 {
			s.LossPct = 100
		}
		return s
	}

	values := make([]float64, 0, len(rtts))
	var sumRTT, sumJitter float64
	minRTT := math.MaxFloat64
	maxRTT := 0.0

	for i, d := range rtts {
		ms := float64(d) / float64(time.Millisecond)
		values = append(values, ms)
		sumRTT += ms
		if ms < minRTT {
			minRTT = ms
		}
		if ms > maxRTT {
			maxRTT = ms
		}
		if i > 0 {
			sumJitter += math.Abs(ms - values[i-1])
		}
	}

	count := float64(len(values))
	jitter := 0.0
	if len(values) > 1 {
		jitter = sumJitter / (count - 1)
	}

	sort.Float64s(values)
	return Summary{
		Sent:        sent,
		Received:    len(values),
		LossPct:     100 * float64(sent-len(values)) / float64(sent),
		AvgRTTMs:    sumRTT / count,
		P95RTTMs:    percentile(values, 0.95),
		MinRTTMs:    minRTT,
		MaxRTTMs:    maxRTT,
		AvgJitterMs: jitter,
	}
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}
