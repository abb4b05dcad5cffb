// Package room wraps the external room service behind a narrow adapter:
// room existence, participant listing and removal, and access-token
// issuance. The adapter keeps no state and never retries; transport
// failures surface as core.ErrAdapter carrying the operation name.
package room

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/warmline/warmline/pkg/core"
)

const (
	opCreateRoom        = "create_room"
	opListRooms         = "list_rooms"
	opListParticipants  = "list_participants"
	opRemoveParticipant = "remove_participant"
)

// RoomInfo summarizes one room known to the room service.
type RoomInfo struct {
	ID               string    `json:"id"`
	SID              string    `json:"sid"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// ParticipantInfo describes a live participant in a room.
type ParticipantInfo struct {
	Identity string `json:"identity"`
	SID      string `json:"sid"`
	Name     string `json:"name"`
}

// RemoveResult reports whether a matching participant was found and removed.
type RemoveResult struct {
	Found bool
}

// Client talks to the room service's HTTP API. Zero internal state beyond
// credentials and the injected HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	tokenTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client; timeout policy lives there.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.tokenTTL = ttl
		}
	}
}

// NewClient creates an adapter for the room service at baseURL.
func NewClient(baseURL, apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{},
		tokenTTL:   DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RTCURL returns the websocket endpoint a participant connects to,
// derived from the service base URL.
func (c *Client) RTCURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + "/rtc"
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/rtc"
	return u.String()
}

// EnsureRoom creates roomID if it does not exist. A room that already
// exists is success, not an error.
func (c *Client) EnsureRoom(ctx context.Context, roomID string) (RoomInfo, error) {
	var resp wireRoom
	err := c.do(ctx, opCreateRoom, "CreateRoom", map[string]any{"name": roomID}, &resp)
	if err != nil {
		var svcErr *serviceError
		// The service reports an existing room as a conflict; that is the
		// idempotent-success case.
		if asServiceError(err, &svcErr) && svcErr.Code == "already_exists" {
			return RoomInfo{ID: roomID}, nil
		}
		return RoomInfo{}, core.NewAdapterError(opCreateRoom, err)
	}
	return resp.toRoomInfo(), nil
}

// ListRooms returns a snapshot of rooms. An empty slice is a valid result.
func (c *Client) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	var resp struct {
		Rooms []wireRoom `json:"rooms"`
	}
	if err := c.do(ctx, opListRooms, "ListRooms", map[string]any{}, &resp); err != nil {
		return nil, core.NewAdapterError(opListRooms, err)
	}
	rooms := make([]RoomInfo, 0, len(resp.Rooms))
	for _, r := range resp.Rooms {
		rooms = append(rooms, r.toRoomInfo())
	}
	return rooms, nil
}

// ListParticipants returns the current participants of roomID.
func (c *Client) ListParticipants(ctx context.Context, roomID string) ([]ParticipantInfo, error) {
	var resp struct {
		Participants []ParticipantInfo `json:"participants"`
	}
	if err := c.do(ctx, opListParticipants, "ListParticipants", map[string]any{"room": roomID}, &resp); err != nil {
		return nil, core.NewAdapterError(opListParticipants, err)
	}
	return resp.Participants, nil
}

// RemoveParticipant resolves identity against the room's live participants
// and removes the match. A missing participant is reported through
// RemoveResult, not an error, so callers can distinguish "nothing to do"
// from a transport failure.
func (c *Client) RemoveParticipant(ctx context.Context, roomID, identity string) (RemoveResult, error) {
	participants, err := c.ListParticipants(ctx, roomID)
	if err != nil {
		return RemoveResult{}, err
	}

	found := false
	for _, p := range participants {
		if p.Identity == identity {
			found = true
			break
		}
	}
	if !found {
		return RemoveResult{Found: false}, nil
	}

	req := map[string]any{"room": roomID, "identity": identity}
	if err := c.do(ctx, opRemoveParticipant, "RemoveParticipant", req, &struct{}{}); err != nil {
		return RemoveResult{}, core.NewAdapterError(opRemoveParticipant, err)
	}
	return RemoveResult{Found: true}, nil
}

// wireRoom is the service's room representation.
type wireRoom struct {
	Name            string `json:"name"`
	SID             string `json:"sid"`
	NumParticipants int    `json:"num_participants"`
	CreationTime    int64  `json:"creation_time"`
}

func (r wireRoom) toRoomInfo() RoomInfo {
	info := RoomInfo{
		ID:               r.Name,
		SID:              r.SID,
		ParticipantCount: r.NumParticipants,
	}
	if r.CreationTime > 0 {
		info.CreatedAt = time.Unix(r.CreationTime, 0).UTC()
	}
	return info
}

// serviceError is a structured error returned by the room service API.
type serviceError struct {
	Code    string `json:"code"`
	Msg     string `json:"msg"`
	Status  int    `json:"-"`
	RawBody string `json:"-"`
}

func (e *serviceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("room service: %s (%s)", e.Msg, e.Code)
	}
	return fmt.Sprintf("room service: status %d: %s", e.Status, e.RawBody)
}

func asServiceError(err error, target **serviceError) bool {
	se, ok := err.(*serviceError)
	if ok {
		*target = se
	}
	return ok
}

func (c *Client) do(ctx context.Context, op, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	endpoint := c.baseURL + "/twirp/livekit.RoomService/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}

	token, err := c.adminToken()
	if err != nil {
		return fmt.Errorf("sign %s request: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		svcErr := &serviceError{Status: resp.StatusCode, RawBody: strings.TrimSpace(string(respBody))}
		_ = json.Unmarshal(respBody, svcErr)
		return svcErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}
