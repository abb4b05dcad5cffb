package room

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when the client is not configured with one.
const DefaultTokenTTL = 6 * time.Hour

// VideoGrant describes what a token holder may do inside the room service.
// Field names follow the room service's wire format.
type VideoGrant struct {
	RoomJoin   bool   `json:"roomJoin,omitempty"`
	Room       string `json:"room,omitempty"`
	RoomCreate bool   `json:"roomCreate,omitempty"`
	RoomList   bool   `json:"roomList,omitempty"`
	RoomAdmin  bool   `json:"roomAdmin,omitempty"`

	CanPublish   bool `json:"canPublish,omitempty"`
	CanSubscribe bool `json:"canSubscribe,omitempty"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

// IssueAccessToken mints a signed credential granting join, publish, and
// subscribe rights to identity in roomID. Pure function of its inputs and
// the client's signing credentials; no side effects.
func (c *Client) IssueAccessToken(roomID, identity, displayName string) (string, error) {
	if roomID == "" {
		return "", fmt.Errorf("room id must not be empty")
	}
	if identity == "" {
		return "", fmt.Errorf("identity must not be empty")
	}
	if displayName == "" {
		displayName = identity
	}
	return c.signToken(identity, displayName, VideoGrant{
		RoomJoin:     true,
		Room:         roomID,
		CanPublish:   true,
		CanSubscribe: true,
	}, c.tokenTTL)
}

func (c *Client) signToken(identity, name string, grant VideoGrant, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  name,
		Video: grant,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// adminToken mints the short-lived credential the client attaches to room
// service API requests.
func (c *Client) adminToken() (string, error) {
	return c.signToken(c.apiKey, c.apiKey, VideoGrant{
		RoomCreate: true,
		RoomList:   true,
		RoomAdmin:  true,
	}, time.Minute)
}

// TokenInfo is the decoded view of an access token.
type TokenInfo struct {
	Identity string
	Name     string
	Grant    VideoGrant
}

// DecodeAccessToken verifies a token against secret and returns its
// identity, display name, and grants.
func DecodeAccessToken(token, secret string) (TokenInfo, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return TokenInfo{}, fmt.Errorf("token is not valid")
	}
	return TokenInfo{
		Identity: claims.Subject,
		Name:     claims.Name,
		Grant:    claims.Video,
	}, nil
}
