package utils

import "strings"

// XRPL base58 alphabet. It has no 0, O, I or l.
const xrplAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const (
	minAddressLength = 25
	maxAddressLength = 35
)

// IsValidXRPLAddress checks the classic account address grammar: a leading
// 'r', 25 to 35 characters, all drawn from the XRPL base58 alphabet.
// It does not verify the checksum.
func IsValidXRPLAddress(address string) bool {
	if len(address) < minAddressLength || len(address) > maxAddressLength {
		return false
	}
	if address[0] != 'r' {
		return false
	}
	for i := 1; i < len(address); i++ {
		if strings.IndexByte(xrplAlphabet, address[i]) < 0 {
			return false
		}
	}
	return true
}

// ShortAddress abbreviates an address to its first and last characters for
// display labels, e.g. "rHb9CJ...dtyTh".
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-5:]
}
