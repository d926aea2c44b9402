package types

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidOption  = goerr.New("invalid option")
	ErrInvalidPayload = goerr.New("invalid webhook payload")
	ErrDeployFailed   = goerr.New("deploy pipeline failed")
	ErrNotifyFailed   = goerr.New("notification delivery failed")
)
