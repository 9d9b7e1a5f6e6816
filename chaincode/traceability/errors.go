package main

import "fmt"

// ValidationError reports input that is missing a required field or has a
// shape the contract does not accept.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// AuthorizationError reports a caller whose role attribute does not permit
// the requested operation.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	return e.Msg
}

// NotFoundError reports a referenced record that does not exist in the
// world state or in a private data collection.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.ID)
}
