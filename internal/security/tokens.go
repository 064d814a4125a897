package security

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformedToken is returned by Decode when the signature does not verify or the payload cannot be parsed.
var ErrMalformedToken = errors.New("malformed token")

// TokenType discriminates what a token may be used for.
type TokenType string

const (
	// TokenTypeAuth marks a session bearer token.
	TokenTypeAuth TokenType = "auth"
	// TokenTypeActivation marks an account activation token.
	TokenTypeActivation TokenType = "activation"
)

// Claim names written by the codec and read by services.
const (
	ClaimType      = "type"
	ClaimSessionID = "sid"
	ClaimUserID    = "uid"
)

// reserved claims are always set by Encode and cannot be overridden by callers.
var reserved = map[string]bool{ClaimType: true, "iss": true, "iat": true, "jti": true}

// TokenCodec signs and parses stateless tokens carrying a flat claim set and a type discriminator.
// It holds no state beyond the key pair; expiry and type checks belong to the caller.
type TokenCodec struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	method     jwt.SigningMethod
	issuer     string
	now        func() time.Time
}

// NewTokenCodec returns a codec that signs with privateKey and verifies with publicKey.
// The algorithm follows the key type (see SigningMethod).
func NewTokenCodec(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer string) (*TokenCodec, error) {
	if privateKey == nil || publicKey == nil {
		return nil, ErrInvalidKey
	}
	method := SigningMethod(publicKey)
	if method == nil {
		return nil, ErrInvalidKey
	}
	return &TokenCodec{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     method,
		issuer:     issuer,
		now:        time.Now,
	}, nil
}

// Encode signs claims with typ as the "type" claim. Claim values must be primitives
// (string, bool, integer or float kinds); anything else is rejected.
func (c *TokenCodec) Encode(claims map[string]any, typ TokenType) (string, error) {
	out := jwt.MapClaims{}
	for k, v := range claims {
		if reserved[k] {
			return "", fmt.Errorf("encode: claim %q is reserved", k)
		}
		if !isPrimitive(v) {
			return "", fmt.Errorf("encode: claim %q has non-primitive value %T", k, v)
		}
		out[k] = v
	}
	out[ClaimType] = string(typ)
	out["iss"] = c.issuer
	out["iat"] = c.now().UTC().Unix()
	out["jti"] = uuid.NewString()
	return jwt.NewWithClaims(c.method, out).SignedString(c.privateKey)
}

// Decode verifies the signature and issuer and returns the claims. Every failure is ErrMalformedToken.
// Numeric claims come back as float64, as in any JSON payload.
func (c *TokenCodec) Decode(token string) (claims map[string]any, err error) {
	defer func() {
		// jwt parsing is expected not to panic; hostile input must still map to ErrMalformedToken.
		if r := recover(); r != nil {
			claims, err = nil, ErrMalformedToken
		}
	}()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return c.publicKey, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}
	if iss, _ := mc["iss"].(string); iss != c.issuer {
		return nil, ErrMalformedToken
	}
	return map[string]any(mc), nil
}

// TypeOf returns the type discriminator in claims, or "" if absent or not a string.
func TypeOf(claims map[string]any) TokenType {
	s, _ := claims[ClaimType].(string)
	return TokenType(s)
}

// IntClaim reads an integral, positive numeric claim. JSON numbers decode to float64, so
// fractional or out-of-range values are rejected.
func IntClaim(claims map[string]any, name string) (int64, bool) {
	f, ok := claims[name].(float64)
	if !ok || f < 1 || f > 1<<53 || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
