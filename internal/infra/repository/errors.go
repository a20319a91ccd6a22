package repository

import "errors"

var ErrInvalidStateData = errors.New("invalid state data")
