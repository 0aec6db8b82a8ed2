package domain

// TokenTypeBearer is the only token type the issuer produces.
const TokenTypeBearer = "Bearer"

// TokenResult is returned by a successful login.
type TokenResult struct {
	Token     string
	TokenType string
	// ExpiresAt is an absolute Unix timestamp in seconds.
	ExpiresAt int64
}

// Principal is the identity recovered from a verified bearer token.
type Principal struct {
	SubjectID   string
	Authorities []string
}

// HasAuthority reports whether p was granted authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
