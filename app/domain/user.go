package domain

import "context"

// UserDirectory resolves a registered user to the current email address.
// An empty address is not an error.
type UserDirectory interface {
	GetEmailByID(ctx context.Context, userID int64) (string, error)
}
