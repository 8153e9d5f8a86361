package tokenx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken reports a token that failed signature or structural
// validation. Expiry is NOT this error: an expired but authentic token
// is reported through Result.Expired so callers can offer a refresh.
var ErrInvalidToken = errors.New("invalid token")

// Result is the outcome of verifying a token.
type Result struct {
	// Expired is true when the signature checked out but the token is
	// past its expiry. Identity is still populated in that case.
	Expired bool

	Identity *Identity
}

// Codec signs and verifies HS256 tokens with a single injected secret.
type Codec struct {
	Secret []byte
	Issuer string
}

var hs256Only = []string{jwt.SigningMethodHS256.Alg()}

// Issue signs a token carrying the identity snapshot, valid for ttl.
func (c *Codec) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:         id.Email,
		Name:          id.Name,
		Role:          id.Role,
		WaitingFor2FA: id.WaitingFor2FA,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
}

// Verify checks the token's signature and expiry. A forged or garbled
// token returns ErrInvalidToken. An authentic token past its expiry
// returns Result{Expired: true} with the identity and a nil error.
func (c *Codec) Verify(token string) (Result, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods(hs256Only)}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, c.keyFunc, opts...)
	if err != nil {
		// Claims are only validated after the signature passes, so an
		// expiry error implies an authentic token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Expired: true, Identity: claims.Identity()}, nil
		}
		return Result{}, ErrInvalidToken
	}

	return Result{Identity: claims.Identity()}, nil
}

// DecodeUnsafe extracts the identity snapshot WITHOUT verifying the
// signature. Only for non-security uses such as matching a token pair;
// never authorize anything off its result. Returns nil when the token
// does not even parse.
func (c *Codec) DecodeUnsafe(token string) *Identity {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims.Identity()
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.Secret, nil
}
