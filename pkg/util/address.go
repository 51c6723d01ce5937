package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is wrapped by every address parsing failure.
var ErrInvalidAddress = errors.New("invalid address")

// ParseAddress normalizes a textual Ethereum address into its 20 bytes.
//
// All-lowercase and all-uppercase hex are accepted as-is. Mixed case is only
// accepted when it is a valid EIP-55 checksum, since anything else usually
// means the address was mistyped.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("%w %q: missing 0x prefix", ErrInvalidAddress, s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w %q: expected 40 hex characters", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)

	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if addr.Hex() != "0x"+body {
			return common.Address{}, fmt.Errorf("%w %q: mixed case does not match EIP-55 checksum", ErrInvalidAddress, s)
		}
	}
	return addr, nil
}

// FormatAddress returns the canonical lowercase 0x-prefixed form of addr.
func FormatAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
