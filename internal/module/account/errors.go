package account

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidCredits  = errors.New("credits must not be negative")
)
