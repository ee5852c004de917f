package service

import "github.com/geocoder89/finledger/internal/apperr"

// requireOwner enforces that only the owner of an entity may mutate it.
func requireOwner(ownerID, requesterID string) error {
	if ownerID == "" || ownerID != requesterID {
		return apperr.Forbidden()
	}
	return nil
}
