package item

import "errors"

// Domain errors for the item package.
var (
	// ErrItemNotFound is returned when an item name does not exist.
	ErrItemNotFound = errors.New("item: not found")

	// ErrItemExists is returned when adding an item with a name that already exists.
	ErrItemExists = errors.New("item: already exists")

	// ErrInvalidItem is returned when item validation fails.
	ErrInvalidItem = errors.New("item: invalid")

	// ErrRegistryClosed is returned when mutating a registry after Close.
	ErrRegistryClosed = errors.New("item: registry closed")
)
