package services

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/internal/store"
)

const notOwnerMessage = "You cannot access this user's info"

// Authorize verifies that callerID owns the user addressed by userID.
// It runs before any read or write so a foreign id is never probed for existence.
func Authorize(callerID, userID string) error {
	if callerID == "" || callerID != userID {
		return notAuthorized(notOwnerMessage)
	}
	return nil
}

// authorizeFilter applies Authorize to the identity field of filter.
func authorizeFilter(callerID string, filter bson.D) error {
	id, ok := store.Lookup(filter, store.IDField)
	if !ok {
		return notAuthorized(notOwnerMessage)
	}
	userID, ok := id.(string)
	if !ok {
		return notAuthorized(notOwnerMessage)
	}
	return Authorize(callerID, userID)
}
