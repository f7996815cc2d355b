package order

import "errors"

var (
	ErrInvalidKind = errors.New("invalid order type")
)
