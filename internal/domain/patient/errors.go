package patient

import "errors"

var ErrInvalidCaseType = errors.New("invalid case type")
