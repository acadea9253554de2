package domain

import "errors"

var (
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrMissingColumns is returned when a bank CSV lacks required headers.
	ErrMissingColumns = errors.New("bank csv missing required columns")
)
