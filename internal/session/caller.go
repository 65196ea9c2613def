package session

import "github.com/google/uuid"

// Caller is the identity a request acts on behalf of.
// A nil Caller, or one with a nil UserID, is unauthenticated.
type Caller struct {
	UserID uuid.UUID
	Token  string
}

func New(userID uuid.UUID, token string) *Caller {
	return &Caller{UserID: userID, Token: token}
}

func (c *Caller) Authenticated() bool {
	return c != nil && c.UserID != uuid.Nil
}
