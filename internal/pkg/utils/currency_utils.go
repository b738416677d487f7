package utils

import (
	"encoding/hex"
	"strings"
	"unicode"
)

const hexCurrencyLength = 40

// IsHexCurrency reports whether code is a 160-bit non-standard currency code.
func IsHexCurrency(code string) bool {
	if len(code) != hexCurrencyLength {
		return false
	}
	_, err := hex.DecodeString(code)
	return err == nil
}

// DecodeCurrencyCode returns the printable form of a currency code. Standard
// three-letter codes are returned as is; hex codes are decoded to ASCII with
// trailing zero bytes removed. Undecodable codes are returned unchanged.
func DecodeCurrencyCode(code string) string {
	if !IsHexCurrency(code) {
		return code
	}
	raw, _ := hex.DecodeString(code)
	raw = []byte(strings.TrimRight(string(raw), "\x00"))
	if len(raw) == 0 {
		return code
	}
	for _, r := range string(raw) {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return code
		}
	}
	return string(raw)
}

// DecodeHexURI decodes an NFT URI field, which the ledger stores hex encoded.
// A value that is not valid hex is returned unchanged.
func DecodeHexURI(raw string) string {
	if raw == "" || len(raw)%2 != 0 {
		return raw
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return raw
	}
	return string(decoded)
}
