package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// PrecomputeSMA reproduces SMA's streaming semantics over a whole frame:
// sort ascending by timestamp, apply a fixed-window rolling mean with
// min_periods = window, then drop the warm-up nulls. Output columns are
// {timestamp, price}. The rolling-mean arithmetic is delegated to go-talib
// so this code path is checked against a well-known reference rather than a
// second hand-rolled implementation of the same formula.
func PrecomputeSMA(f *schema.Frame, window domain.SmaWindow) (*schema.Frame, error) {
	return precompute(f, func(closes []float64) []float64 {
		return talib.Sma(closes, int(window))
	}, int(window))
}

// PrecomputeEMA reproduces EMA's streaming semantics over a whole frame
// (alpha = 2/(window+1), no bias correction, min_periods = window).
func PrecomputeEMA(f *schema.Frame, window domain.EmaWindow) (*schema.Frame, error) {
	return precompute(f, func(closes []float64) []float64 {
		return talib.Ema(closes, int(window))
	}, int(window))
}

// PrecomputeRSI reproduces RSI's Wilder-smoothed streaming semantics over a
// whole frame. talib.Rsi already implements Wilder's method with the same
// alpha = 1/window, so the streaming and batch paths share one formula.
func PrecomputeRSI(f *schema.Frame, window domain.RsiWindow) (*schema.Frame, error) {
	return precompute(f, func(closes []float64) []float64 {
		return talib.Rsi(closes, int(window))
	}, int(window)+1)
}

// precompute is the shared sort -> extract closes -> apply -> drop-nulls
// pipeline used by all three batch indicators.
func precompute(f *schema.Frame, apply func([]float64) []float64, window int) (*schema.Frame, error) {
	if err := f.SortByTimestamp(); err != nil {
		return nil, err
	}

	n := f.Len()
	closes := make([]float64, n)
	timestamps := make([]int64, n)
	closeCol := f.Column(schema.ColClose)
	tsCol := f.Column(schema.ColTimestamp)
	for i := 0; i < n; i++ {
		c, err := schema.UnwrapFloat64(closeCol[i])
		if err != nil {
			return nil, err
		}
		ts, err := schema.UnwrapInt64(tsCol[i])
		if err != nil {
			return nil, err
		}
		closes[i] = c
		timestamps[i] = ts
	}

	if n < window {
		return nil, cerrors.NewDataError(cerrors.DataFrame, "not enough rows to satisfy indicator window")
	}

	values := apply(closes)
	if len(values) != n {
		return nil, cerrors.NewDataError(cerrors.DataFrame, "indicator output length mismatch")
	}

	out := schema.NewFrame(schema.ColTimestamp, schema.ColPrice)
	for i := 0; i < n; i++ {
		v := values[i]
		row := map[schema.CanonicalColumn]schema.Cell{
			schema.ColTimestamp: schema.IntCell(timestamps[i]),
		}
		if math.IsNaN(v) || i < window-1 {
			row[schema.ColPrice] = schema.NullCell
		} else {
			row[schema.ColPrice] = schema.FloatCell(v)
		}
		out.AppendRow(row)
	}
	out.DropNullRows()
	return out, nil
}
