package config

import "errors"

var (
	ErrRedisAddrMissing = errors.New("REDIS_ADDR must not be empty")
	ErrInvalidRedisDB   = errors.New("REDIS_DB is not an integer")
)
