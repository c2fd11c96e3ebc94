// Package common defines the sentinel errors shared across the
// service, store and handler layers. Handlers use errors.Is on these
// to pick the right HTTP status.
package common

import "errors"

// Generic errors
var (
	// ErrNotFound - the requested marker/photo/user/reward/pin does not exist
	ErrNotFound = errors.New("not found")
	// ErrValidation - the request carried invalid input
	ErrValidation = errors.New("invalid request")
	// ErrForbidden - the caller does not own the resource
	ErrForbidden = errors.New("forbidden")
)

// Point ledger errors
var (
	// ErrInsufficientBalance - the debit amount exceeds the user's balance
	ErrInsufficientBalance = errors.New("insufficient point balance")
)

// Reward issuance and redemption errors
var (
	// ErrDuplicateCode - the generated pin number already exists
	ErrDuplicateCode = errors.New("duplicate pin number")
	// ErrCodeGenerationExhausted - ran out of attempts to mint a unique pin
	ErrCodeGenerationExhausted = errors.New("pin generation attempts exhausted")
	// ErrInvalidCode - no pin matches the presented code
	ErrInvalidCode = errors.New("invalid pin number")
	// ErrAlreadyUsed - the pin was already redeemed
	ErrAlreadyUsed = errors.New("pin already used")
	// ErrExpired - the pin is past its expiry
	ErrExpired = errors.New("pin expired")
)

// Verification errors
var (
	// ErrJudgeUnavailable - the external judge could not be reached or
	// timed out. Distinct from a rejection verdict: the caller retries
	// via redelivery instead of failing the photo.
	ErrJudgeUnavailable = errors.New("verification judge unavailable")
)
