package course

// EffectivePrice is the charge amount in minor units after the discount,
// rounded to the nearest unit. A zero result means the course is free and
// the payment gateway is skipped entirely.
func EffectivePrice(c Course) int64 {
	if c.Discount == 0 {
		return c.Price
	}
	if c.Discount >= 100 {
		return 0
	}
	return (c.Price*int64(100-c.Discount) + 50) / 100
}

// DisplayAmount converts a minor-unit amount to major units for responses.
func DisplayAmount(minor int64) float64 {
	return float64(minor) / 100
}
