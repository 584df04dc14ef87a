package services

// AmountMatches compares the amount recorded on an order against the amount
// presented in a callback. Callbacks always carry the smallest currency
// subunit (tiyin); orders are stored in the unit pinned by configuration, so
// the stored amount is scaled up by the configured factor before comparison.
// The scale is never inferred from the data.
func AmountMatches(orderAmount, callbackAmount, scale int64) bool {
	if scale <= 0 {
		scale = 1
	}
	return orderAmount*scale == callbackAmount
}
