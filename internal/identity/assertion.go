// Package identity decodes the sign-in provider's assertion token to prefill
// the booking form. The signature is not verified: the result is display
// data only and must never gate a privileged action.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

var ErrMalformedToken = errors.New("identity: malformed assertion token")

// Profile is the subset of assertion claims the form uses.
type Profile struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

// Empty reports whether the assertion carried none of the expected claims.
func (p Profile) Empty() bool {
	return p.GivenName == "" && p.FamilyName == "" && p.Email == ""
}

// Decode reads the payload segment of a three-part token.
func Decode(token string) (Profile, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return Profile{}, ErrMalformedToken
	}
	raw, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return Profile{}, fmt.Errorf("identity: decode payload: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("identity: parse payload: %w", err)
	}
	if p.Empty() {
		return Profile{}, fmt.Errorf("%w: no profile claims", ErrMalformedToken)
	}
	return p, nil
}

// Fields receives a decoded profile.
type Fields interface {
	SetFirstName(string)
	SetLastName(string)
	SetEmail(string)
}

// Prefill decodes token into f. On failure it logs and leaves f untouched.
// Claims absent from the token do not overwrite existing values.
func Prefill(token string, f Fields, logger *logging.Logger) bool {
	p, err := Decode(token)
	if err != nil {
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("identity assertion decode failed", "error", err)
		return false
	}
	if p.GivenName != "" {
		f.SetFirstName(p.GivenName)
	}
	if p.FamilyName != "" {
		f.SetLastName(p.FamilyName)
	}
	if p.Email != "" {
		f.SetEmail(p.Email)
	}
	return true
}
