package domain

import "github.com/mr-tron/base58"

// ValidOwnerAddress reports whether s is a base58 encoded 32 byte Solana public key.
func ValidOwnerAddress(s string) bool {
	if s == "" {
		return false
	}
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == 32
}
