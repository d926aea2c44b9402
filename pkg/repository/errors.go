package repository

import "github.com/m-mizutani/goerr/v2"

var (
	ErrNotFound      = goerr.New("repository config not found")
	ErrInvalidConfig = goerr.New("repository config is invalid")
)
