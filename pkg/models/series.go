package models

import (
	"fmt"
	"math"
	"time"
)

// SeriesDatum is a single timestamped value within a series
type SeriesDatum struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an ordered-by-time sequence of data points for one
// (device, parameter) pair
type Series []SeriesDatum

// FormatValue applies a row's display precision. Stored raw values are never
// altered; precision matters only at render time.
func FormatValue(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	factor := math.Pow10(decimals)
	rounded := math.Round(value*factor) / factor
	return fmt.Sprintf("%.*f", decimals, rounded)
}
