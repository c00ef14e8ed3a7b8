package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var errShortSeries = errors.New("not enough closes")

// SMA is the mean of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period {
		return 0, errShortSeries
	}
	return stat.Mean(closes[len(closes)-period:], nil), nil
}

// RSI is Wilder's relative strength index over period, seeded with the
// plain average of the first period moves.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) <= period {
		return 0, errShortSeries
	}

	moves := make([]float64, len(closes)-1)
	floats.SubTo(moves, closes[1:], closes[:len(closes)-1])

	up, down := split(moves[:period])
	avgUp := floats.Sum(up) / float64(period)
	avgDown := floats.Sum(down) / float64(period)

	k := 1 / float64(period)
	for _, m := range moves[period:] {
		avgUp += k * (max(m, 0) - avgUp)
		avgDown += k * (max(-m, 0) - avgDown)
	}

	if avgDown == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgUp/avgDown), nil
}

// split separates moves into gains and losses, both non-negative.
func split(moves []float64) (up, down []float64) {
	up = make([]float64, len(moves))
	down = make([]float64, len(moves))
	for i, m := range moves {
		if m > 0 {
			up[i] = m
		} else {
			down[i] = -m
		}
	}
	return up, down
}
