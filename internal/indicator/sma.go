package indicator

// SMA returns the simple moving average ending at each input position.
// The result is aligned with values: entries before the first full window,
// and every entry when period < 1, are nil.
func SMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period < 1 {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			avg := sum / float64(period)
			out[i] = &avg
		}
	}
	return out
}
