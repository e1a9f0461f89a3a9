package quant

import (
	"math"
	"testing"
)

// FuzzToQtyMicros validates the float boundary conversion never panics,
// that exact conversions really do round-trip, and that inexact ones only
// ever truncate toward zero.
func FuzzToQtyMicros(f *testing.F) {
	f.Add(0.0)
	f.Add(1.5)
	f.Add(-1.23)
	f.Add(0.000001)
	f.Add(1.2345678)
	f.Add(9999999.999999)

	f.Fuzz(func(t *testing.T, val float64) {
		q, exact := ToQtyMicros(val)
		if exact && q.Float() != val {
			t.Errorf("exact conversion of %v did not round-trip: got %v", val, q.Float())
		}
		if !exact && math.Abs(float64(q)) > math.Abs(val*Scale) {
			t.Errorf("truncation of %v moved away from zero: got %d", val, q)
		}
	})
}
