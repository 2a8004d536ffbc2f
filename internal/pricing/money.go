package pricing

// mulPercentHalfUp multiplies a cent amount by percent/100, rounding half
// cents up. Rates are small enough that int64 overflow is not a concern.
func mulPercentHalfUp(cents, percent int64) int64 {
	n := cents * percent
	q := n / 100
	if n%100*2 >= 100 {
		q++
	}
	return q
}
