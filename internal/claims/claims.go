// Package claims decodes the identity claims carried by job board access tokens.
package claims

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/job-board-client/internal/types"
)

var (
	// ErrMalformed is returned for tokens that are not a decodable JWT.
	ErrMalformed = errors.New("malformed token")
	// ErrUnknownRole is returned when the role claim is missing or unrecognized.
	ErrUnknownRole = errors.New("token carries no known role")
	// ErrExpired is returned for tokens past their exp claim.
	ErrExpired = errors.New("token expired")
)

// Claims is the identity a token asserts.
type Claims struct {
	Subject   string
	Role      types.Role
	Email     string
	ExpiresAt time.Time
}

// Decoder turns a token into its claims.
type Decoder interface {
	Decode(token string) (*Claims, error)
}

// UnverifiedDecoder reads the token payload without checking the signature.
// The API remains the authority on validity; this only answers "who and which role".
type UnverifiedDecoder struct {
	Now func() time.Time
}

// Decode implements Decoder.
func (d UnverifiedDecoder) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c, err := fromMap(mc)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	if !c.ExpiresAt.IsZero() && now().After(c.ExpiresAt) {
		return nil, ErrExpired
	}
	return c, nil
}

// HMACDecoder verifies an HS256 signature before reading the claims.
type HMACDecoder struct {
	Secret []byte
}

// Decode implements Decoder.
func (d HMACDecoder) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}
	return fromMap(mc)
}

// NewDecoder returns an HMACDecoder when secret is set, otherwise an UnverifiedDecoder.
func NewDecoder(secret string) Decoder {
	if secret != "" {
		return HMACDecoder{Secret: []byte(secret)}
	}
	return UnverifiedDecoder{}
}

func fromMap(mc jwt.MapClaims) (*Claims, error) {
	roleStr, _ := mc["role"].(string)
	role, ok := types.ParseRole(roleStr)
	if !ok {
		return nil, ErrUnknownRole
	}

	c := &Claims{Role: role}
	c.Email, _ = mc["email"].(string)

	// The API issues numeric subjects; tolerate strings as well.
	switch sub := mc["sub"].(type) {
	case string:
		c.Subject = sub
	case float64:
		c.Subject = strconv.FormatInt(int64(sub), 10)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Sign issues an HS256 token carrying c. Used by local tooling and tests that
// stand in for the API.
func Sign(secret []byte, c Claims) (string, error) {
	mc := jwt.MapClaims{
		"sub":  c.Subject,
		"role": string(c.Role),
	}
	if c.Email != "" {
		mc["email"] = c.Email
	}
	if !c.ExpiresAt.IsZero() {
		mc["exp"] = jwt.NewNumericDate(c.ExpiresAt)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}
