package format

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

type unit struct {
	threshold float64
	suffix    string
}

var units = []unit{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Number renders v in the abbreviated form shown on the counter:
// one decimal with a B/M/K suffix above a thousand, otherwise the
// truncated integer. Negative and non-finite input renders as "0".
func Number(v float64) string {
	if math.IsNaN(v) || v < 0 {
		return "0"
	}
	if math.IsInf(v, 1) {
		v = math.MaxFloat64
	}
	for _, u := range units {
		if v >= u.threshold {
			return strconv.FormatFloat(v/u.threshold, 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(math.Trunc(v), 'f', 0, 64)
}

// Exact renders the truncated integer part of v with thousands separators.
func Exact(v float64) string {
	if math.IsNaN(v) || v < 0 {
		return "0"
	}
	if v >= math.MaxInt64 {
		return humanize.Commaf(math.Trunc(v))
	}
	return humanize.Comma(int64(v))
}
