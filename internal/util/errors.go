package util

import "errors"

var ErrInvalidID = errors.New("invalid id")
