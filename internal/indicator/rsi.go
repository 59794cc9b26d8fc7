package indicator

// RSI calculates the Relative Strength Index over the last period close-to-close
// changes using simple averages. Returns nil when fewer than period+1 closes exist.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	rsi := 100.0
	if avgLoss != 0 {
		rsi = 100 - 100/(1+avgGain/avgLoss)
	}
	return &rsi
}
