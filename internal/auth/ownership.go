package auth

import "github.com/desertthunder/setlist/internal/models"

// CheckOwnership allows p to act on a resource owned by owner.
//
// IDs are compared byte for byte with no normalization.
func CheckOwnership(owner string, p *models.Principal) error {
	if p == nil || owner != p.ID {
		return Forbidden(CauseNotOwner)
	}
	return nil
}
