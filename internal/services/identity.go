package services

import (
	"github.com/AnshRaj112/astravedam-backend/internal/models"
)

// Identity is what a request says about its caller. Account is nil when
// unauthenticated; AnonymousID is the client-generated id, if sent.
type Identity struct {
	Account     *models.Account
	AnonymousID string
}

func (i Identity) Authenticated() bool { return i.Account != nil }

// ResolveOwner picks the owner key for a new chart. An account always wins
// over an anonymous id.
func ResolveOwner(i Identity) models.Owner {
	switch {
	case i.Account != nil:
		return models.AccountOwner{AccountID: i.Account.ID}
	case i.AnonymousID != "":
		return models.AnonymousOwner{ClientID: i.AnonymousID}
	default:
		return models.Unowned{}
	}
}

func ownerLabel(o models.Owner) string {
	switch o.(type) {
	case models.AccountOwner:
		return "account"
	case models.AnonymousOwner:
		return "anonymous"
	default:
		return "none"
	}
}
