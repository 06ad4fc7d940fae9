package auth

import "fmt"

// Mode selects how strictly resource ownership is enforced on mutations.
type Mode string

const (
	// ModeOwner allows the creator of a resource or an admin.
	ModeOwner Mode = "owner"
	// ModeAuthenticated allows any caller holding a valid token.
	ModeAuthenticated Mode = "authenticated"
)

type Policy struct {
	mode Mode
}

func NewPolicy(mode string) (Policy, error) {
	switch Mode(mode) {
	case ModeOwner, ModeAuthenticated:
		return Policy{mode: Mode(mode)}, nil
	case "":
		return Policy{mode: ModeOwner}, nil
	default:
		return Policy{}, fmt.Errorf("unknown ownership mode %q", mode)
	}
}

func (p Policy) Mode() Mode {
	if p.mode == "" {
		return ModeOwner
	}
	return p.mode
}

// CanModify decides whether the caller may update or delete a resource owned
// by ownerID. Anonymous callers are never allowed.
func (p Policy) CanModify(claims *Claims, ownerID int64) error {
	if claims == nil {
		return ErrMissingToken
	}
	if claims.IsAdmin || p.Mode() == ModeAuthenticated {
		return nil
	}
	if claims.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// CanActAs decides whether the caller may act on behalf of userID, e.g. to
// create a bookmark for them. Unlike CanModify it ignores ModeAuthenticated:
// a token holder never writes rows attributed to someone else unless admin.
func (p Policy) CanActAs(claims *Claims, userID int64) error {
	if claims == nil {
		return ErrMissingToken
	}
	if claims.IsAdmin || claims.UserID == userID {
		return nil
	}
	return ErrForbidden
}
