package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidGuestToken = errors.New("invalid or expired token")

const guestTokenDuration = 24 * time.Hour

// GuestAuthService issues and validates the signed guest tickets required
// on the websocket upgrade. Guests are anonymous; the ticket only binds a
// stable id and display name to the connection. Slot authorization inside
// games and rooms uses the separate opaque slot tokens.
type GuestAuthService struct {
	jwtSecret []byte
}

func NewGuestAuthService(jwtSecret string) *GuestAuthService {
	return &GuestAuthService{jwtSecret: []byte(jwtSecret)}
}

// IssueGuestToken creates a signed ticket for an anonymous player.
func (s *GuestAuthService) IssueGuestToken(name string) (guestID, token string, err error) {
	name = strings.TrimSpace(name)
	guestID = "guest-" + uuid.NewString()
	if name == "" {
		name = "Guest-" + guestID[len(guestID)-4:]
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  guestID,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(guestTokenDuration).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign guest token: %w", err)
	}
	return guestID, token, nil
}

// ValidateToken checks a guest ticket and returns its identity.
func (s *GuestAuthService) ValidateToken(tokenString string) (guestID, name string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", ErrInvalidGuestToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidGuestToken
	}

	guestID, _ = claims["sub"].(string)
	name, _ = claims["name"].(string)
	if guestID == "" {
		return "", "", ErrInvalidGuestToken
	}
	return guestID, name, nil
}

// NewSlotToken mints an opaque per-slot secret.
func NewSlotToken() string {
	return uuid.NewString()
}

// TokenFingerprint returns a short non-reversible fingerprint of a slot
// token. Clients use it to self-identify their slot without ever seeing
// the peer's secret.
func TokenFingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])[:12]
}
