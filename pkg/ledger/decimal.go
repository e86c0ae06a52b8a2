package ledger

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// addRatings sums two rating values in decimal so that totals of one-decimal
// ratings stay exact (7.1+8.2 is 15.3, not 15.299999999999999).
func addRatings(a, b float64) float64 {
	var x, y, sum apd.Decimal
	if _, _, err := x.SetString(strconv.FormatFloat(a, 'f', -1, 64)); err != nil {
		return a + b
	}
	if _, _, err := y.SetString(strconv.FormatFloat(b, 'f', -1, 64)); err != nil {
		return a + b
	}
	if _, err := decimalCtx.Add(&sum, &x, &y); err != nil {
		return a + b
	}
	f, err := sum.Float64()
	if err != nil {
		return a + b
	}
	return f
}

// formatRating renders a rating total the way it is written to disk.
func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
