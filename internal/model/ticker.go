package model

import "strings"

// QuoteCurrency is appended to bare crypto codes.
const QuoteCurrency = "USD"

// cryptoCodes lists the bare coin symbols that data providers only know as pairs.
var cryptoCodes = map[string]bool{
	"BTC":   true,
	"ETH":   true,
	"DOGE":  true,
	"SOL":   true,
	"XRP":   true,
	"ADA":   true,
	"LTC":   true,
	"BNB":   true,
	"AVAX":  true,
	"DOT":   true,
	"MATIC": true,
	"SHIB":  true,
	"LINK":  true,
}

// NormalizeTicker trims and uppercases a raw symbol and expands bare crypto
// codes to their <CODE>-USD pair. Normalizing an already normalized ticker
// returns it unchanged.
func NormalizeTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if cryptoCodes[t] {
		return t + "-" + QuoteCurrency
	}
	return t
}

// IsCrypto reports whether a normalized ticker is a crypto pair.
func IsCrypto(ticker string) bool {
	code, quote, ok := strings.Cut(ticker, "-")
	return ok && quote == QuoteCurrency && cryptoCodes[code]
}
