package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"csecv/internal/domain"
)

// Claims are the identity facts embedded in a session token. The expiry is
// part of the signed payload, so a token replayed outside its cookie wrapper
// still dies on time.
type Claims struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
}

// Codec signs and verifies session tokens of the form
// base64url(payload) "." base64url(hmac-sha256(payload)).
// It is constructed once at startup with the process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the token lifetime, also used for the cookie max-age.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a token for the user, stamping issue and expiry times.
func (c *Codec) Sign(user *domain.User) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + c.signature(body), nil
}

// Verify parses a token back into claims. It fails closed: any structural
// problem, signature mismatch or expired timestamp yields nil, never an
// error the caller could mishandle.
func (c *Codec) Verify(token string) *Claims {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return nil
	}
	expected := c.signature(body)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt <= c.now().Unix() {
		return nil
	}
	return &claims
}

func (c *Codec) signature(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
