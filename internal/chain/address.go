package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidContract = errors.New("invalid contract address")
)

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return common.IsHexAddress(s)
}

// ParseAddress validates s and returns the checksummed address.
func ParseAddress(s string) (common.Address, error) {
	if !IsAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(strings.TrimSpace(s)), nil
}

// NormalizeAddress lower-cases a valid address so it can be used as a storage key.
func NormalizeAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Hex()), nil
}
