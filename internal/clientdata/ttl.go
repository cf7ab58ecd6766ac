package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLSymbolSearch = 7 * 24 * time.Hour // Symbol names rarely change
	TTLPriceHistory = 12 * time.Hour     // Daily closes settle once per session
	TTLExchangeRate = time.Hour
	TTLCurrentPrice = 10 * time.Minute
)
