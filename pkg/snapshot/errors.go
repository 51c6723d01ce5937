package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAddress is wrapped by DuplicateAddressError.
	ErrDuplicateAddress = errors.New("duplicate address")

	// ErrAddressNotFound is wrapped by AddressNotFoundError.
	ErrAddressNotFound = errors.New("address not found in snapshot")

	// ErrNotCanonical is returned when a loaded snapshot is not sorted by amount descending.
	ErrNotCanonical = errors.New("snapshot is not in canonical order")

	// ErrNotArray is returned when snapshot data is not a JSON array of accounts.
	ErrNotArray = errors.New("snapshot must be a JSON array")
)

// RecordError identifies the input record that could not be parsed.
type RecordError struct {
	Source  string
	Index   int
	Address string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d (%s): %v", e.Source, e.Index, e.Address, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// DuplicateAddressError reports an address that appears twice within one dataset.
// Datasets are expected to be unique by address; summing across datasets is the
// only legal way for an address to be seen twice.
type DuplicateAddressError struct {
	Source     string
	Address    string
	FirstIndex int
	Index      int
}

func (e *DuplicateAddressError) Error() string {
	return fmt.Sprintf("%s: duplicate address %s at records %d and %d", e.Source, e.Address, e.FirstIndex, e.Index)
}

func (e *DuplicateAddressError) Unwrap() error {
	return ErrDuplicateAddress
}

// AddressNotFoundError is returned by lookups for an address absent from the snapshot.
type AddressNotFoundError struct {
	Address string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("address %s not in snapshot", e.Address)
}

func (e *AddressNotFoundError) Unwrap() error {
	return ErrAddressNotFound
}
