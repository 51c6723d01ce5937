package snapshot

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
)

// ExclusionList is a set of addresses that never receive an allocation.
// Matching is case-insensitive since entries are compared as raw bytes.
type ExclusionList struct {
	addrs map[common.Address]struct{}
}

// NewExclusionList parses addresses in any letter case. Blank entries are skipped.
func NewExclusionList(addresses []string) (*ExclusionList, error) {
	el := &ExclusionList{addrs: make(map[common.Address]struct{}, len(addresses))}
	for _, raw := range addresses {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := util.ParseAddress(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid excluded address: %w", err)
		}
		el.addrs[addr] = struct{}{}
	}
	return el, nil
}

// Contains reports whether addr is excluded. A nil list excludes nothing.
func (el *ExclusionList) Contains(addr common.Address) bool {
	if el == nil {
		return false
	}
	_, ok := el.addrs[addr]
	return ok
}

// Len returns the number of excluded addresses.
func (el *ExclusionList) Len() int {
	if el == nil {
		return 0
	}
	return len(el.addrs)
}
