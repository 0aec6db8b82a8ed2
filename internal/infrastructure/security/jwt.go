package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crediya/iam-service/internal/core/domain"
)

const (
	// MinSecretBytes is the shortest HMAC-SHA256 key accepted.
	MinSecretBytes = 32
	// AuthorityPrefix is prepended to every role name to form an authority.
	AuthorityPrefix = "ROLE_"
	// DefaultLeeway absorbs clock skew between issuer and verifier.
	DefaultLeeway = 30 * time.Second
)

// DefaultRoleFallbacks maps role ids to names for tokens that carry roleId
// but no roles claim.
func DefaultRoleFallbacks() map[int64]string {
	return map[int64]string{1: "CLIENTE", 2: "ASESOR", 3: "ADMIN"}
}

var errWeakSecret = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretBytes)

// issuedClaims is what the issuer signs.
type issuedClaims struct {
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	RoleID int64    `json:"roleId"`
	jwt.RegisteredClaims
}

// verifiedClaims keeps the custom claims raw so a malformed value can be
// rejected without failing the whole token.
type verifiedClaims struct {
	Email  string          `json:"email,omitempty"`
	Roles  json.RawMessage `json:"roles,omitempty"`
	RoleID json.RawMessage `json:"roleId,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer implements ports.TokenIssuer with HS256.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTIssuer(secret, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < MinSecretBytes {
		return nil, errWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

func (i *JWTIssuer) Issue(userID int64, email string, roleID int64, roleName string, now time.Time) (*domain.TokenResult, error) {
	exp := now.Add(i.ttl)
	claims := issuedClaims{
		Email:  email,
		Roles:  []string{roleName},
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.TokenResult{
		Token:     signed,
		TokenType: domain.TokenTypeBearer,
		ExpiresAt: exp.Unix(),
	}, nil
}

// JWTVerifier implements ports.TokenVerifier.
type JWTVerifier struct {
	secret    []byte
	issuer    string
	leeway    time.Duration
	fallbacks map[int64]string
}

// NewJWTVerifier copies fallbacks; later changes to the caller's map have no effect.
func NewJWTVerifier(secret, issuer string, fallbacks map[int64]string, leeway time.Duration) (*JWTVerifier, error) {
	if len(secret) < MinSecretBytes {
		return nil, errWeakSecret
	}
	fb := make(map[int64]string, len(fallbacks))
	for id, name := range fallbacks {
		fb[id] = name
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, leeway: leeway, fallbacks: fb}, nil
}

func (v *JWTVerifier) Verify(token string, now time.Time) (domain.Principal, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, false
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims verifiedClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return domain.Principal{}, false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Principal{}, false
	}

	return domain.Principal{
		SubjectID:   claims.Subject,
		Authorities: v.authorities(claims),
	}, true
}

// authorities prefers a non-empty roles array, then falls back to roleId.
// A roles claim that is not an array of strings grants nothing.
func (v *JWTVerifier) authorities(c verifiedClaims) []string {
	if len(c.Roles) > 0 && string(c.Roles) != "null" {
		var roles []string
		if err := json.Unmarshal(c.Roles, &roles); err != nil {
			return nil
		}
		if len(roles) > 0 {
			out := make([]string, 0, len(roles))
			for _, r := range roles {
				if r = strings.TrimSpace(r); r != "" {
					out = append(out, AuthorityPrefix+r)
				}
			}
			return out
		}
	}

	id, ok := parseRoleID(c.RoleID)
	if !ok {
		return nil
	}
	name, ok := v.fallbacks[id]
	if !ok {
		return nil
	}
	return []string{AuthorityPrefix + name}
}

// parseRoleID accepts a JSON integer or a numeric string.
func parseRoleID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if id, err := n.Int64(); err == nil {
			return id, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil
}
