package session

import "github.com/google/uuid"

// NewID returns the id sent as X-Client-Session-ID on every request of one
// bellhop process. Version 7 uuids sort by creation time, so server logs of
// one run group together.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
