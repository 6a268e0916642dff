package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when a request has no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// JWTConf configures HS256 bearer tokens for the display API.
type JWTConf struct {
	Secret string `json:"secret"`
	Issuer string `json:"issuer"`
}

// Enabled reports whether a signing secret is configured.
func (c JWTConf) Enabled() bool { return c.Secret != "" }

// JWT signs and verifies HS256 tokens.
type JWT struct {
	secret []byte
	issuer string
}

func NewJWT(conf JWTConf) *JWT {
	return &JWT{secret: []byte(conf.Secret), issuer: conf.Issuer}
}

// Issue returns a signed token for subject valid for ttl.
func (j *JWT) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Parse validates the token signature, expiry and issuer.
func (j *JWT) Parse(token string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// FromRequest extracts and validates the bearer token of r. Browsers cannot
// set headers on WebSocket upgrades, so the access_token query parameter is
// accepted as well.
func (j *JWT) FromRequest(r *http.Request) (*jwt.RegisteredClaims, error) {
	tok := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tok = strings.TrimPrefix(h, "Bearer ")
	} else if q := r.URL.Query().Get("access_token"); q != "" {
		tok = q
	}
	if tok == "" {
		return nil, ErrMissingToken
	}
	return j.Parse(tok)
}
