package risk

import "stratum/types"

// swingStrength is the number of neighbors on each side a bar must
// dominate to qualify as a swing point.
const swingStrength = 2

// swingLookback bounds how far back swing detection scans.
const swingLookback = 50

// swingLevel returns the most recent qualifying swing level relative to
// entry. above selects swing highs above entry; otherwise swing lows
// below entry.
func swingLevel(series []types.Candle, entry float64, above bool) (float64, bool) {
	n := len(series)
	if n < 2*swingStrength+1 {
		return 0, false
	}
	start := n - swingLookback
	if start < swingStrength {
		start = swingStrength
	}
	// Newest qualifying swing wins, so scan backwards.
	for i := n - 1 - swingStrength; i >= start; i-- {
		if above {
			if h := series[i].High; h > entry && isSwingHigh(series, i) {
				return h, true
			}
		} else {
			if l := series[i].Low; l < entry && isSwingLow(series, i) {
				return l, true
			}
		}
	}
	return 0, false
}

func isSwingHigh(series []types.Candle, i int) bool {
	for d := 1; d <= swingStrength; d++ {
		if series[i].High <= series[i-d].High || series[i].High <= series[i+d].High {
			return false
		}
	}
	return true
}

func isSwingLow(series []types.Candle, i int) bool {
	for d := 1; d <= swingStrength; d++ {
		if series[i].Low >= series[i-d].Low || series[i].Low >= series[i+d].Low {
			return false
		}
	}
	return true
}
