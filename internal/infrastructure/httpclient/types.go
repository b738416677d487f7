package httpclient

// coinGeckoPrice is one coin entry of the /simple/price response, keyed by
// "<vs>", "<vs>_24h_change", "<vs>_market_cap" and "<vs>_24h_vol".
type coinGeckoPrice map[string]float64

// coinGeckoPriceResponse maps coin ids to their prices.
type coinGeckoPriceResponse map[string]coinGeckoPrice

// sentiCryptEntry is one reading of the SentiCrypt v2 feed. Numeric fields
// are decoded loosely because the feed mixes numbers and nulls.
type sentiCryptEntry struct {
	Last      any `json:"last"`
	Mean      any `json:"mean"`
	Count     any `json:"count"`
	Price     any `json:"price"`
	BTCPrice  any `json:"btc_price"`
	Timestamp any `json:"timestamp"`
	Date      any `json:"date"`
}
