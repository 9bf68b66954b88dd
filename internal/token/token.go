package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrInvalid = errors.New("token invalid")
	ErrExpired = errors.New("token expired")
)

// DefaultTTL is how long email-verification links stay valid.
const DefaultTTL = 48 * time.Hour

// Signer issues and checks HMAC-SHA256 signed verification tokens. The key
// is derived from SECRET_KEY; tokens carry the user ID and an expiry.
type Signer struct {
	key   []byte
	clock clockwork.Clock
}

func NewSigner(secretKey string, clock clockwork.Clock) *Signer {
	key := sha256.Sum256([]byte(secretKey))
	return &Signer{key: key[:], clock: clock}
}

func (s *Signer) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// Issue creates a token binding userID until now+ttl.
func (s *Signer) Issue(userID uuid.UUID, ttl time.Duration) string {
	expiry := s.clock.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s|%d", userID, expiry)

	sig := base64.RawURLEncoding.EncodeToString(s.mac(payload))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return body + "." + sig
}

// Verify checks signature and expiry and returns the embedded user ID.
func (s *Signer) Verify(token string) (uuid.UUID, error) {
	body, sig, found := strings.Cut(token, ".")
	if !found {
		return uuid.Nil, ErrInvalid
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	if !hmac.Equal(sigBytes, s.mac(string(payloadBytes))) {
		return uuid.Nil, ErrInvalid
	}

	idStr, expStr, found := strings.Cut(string(payloadBytes), "|")
	if !found {
		return uuid.Nil, ErrInvalid
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	expiry, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}

	if s.clock.Now().After(time.Unix(expiry, 0)) {
		return uuid.Nil, ErrExpired
	}
	return userID, nil
}
