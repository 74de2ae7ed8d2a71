package submission

import "errors"

// ErrInvalidVector is returned when a derived feature vector fails its final
// struct check.
var ErrInvalidVector = errors.New("submission: feature vector failed validation")
