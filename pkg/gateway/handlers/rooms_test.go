package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warmline/warmline/pkg/core"
	"github.com/warmline/warmline/pkg/room"
)

type fakeRoomService struct {
	ensured   []string
	rooms     []room.RoomInfo
	listErr   error
	ensureErr error
	tokenErr  error
}

func (f *fakeRoomService) EnsureRoom(_ context.Context, roomID string) (room.RoomInfo, error) {
	if f.ensureErr != nil {
		return room.RoomInfo{}, f.ensureErr
	}
	f.ensured = append(f.ensured, roomID)
	return room.RoomInfo{ID: roomID}, nil
}

func (f *fakeRoomService) ListRooms(context.Context) ([]room.RoomInfo, error) {
	return f.rooms, f.listErr
}

func (f *fakeRoomService) IssueAccessToken(roomID, identity, displayName string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok-" + roomID + "-" + identity, nil
}

func TestTokenHandler_EnsuresRoomThenMintsToken(t *testing.T) {
	rooms := &fakeRoomService{}
	h := TokenHandler{Rooms: rooms}

	body := strings.NewReader(`{"room_id":"room-1","identity":"caller-9"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/get-token", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if len(rooms.ensured) != 1 || rooms.ensured[0] != "room-1" {
		t.Fatalf("ensured=%v", rooms.ensured)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token != "tok-room-1-caller-9" || resp.Identity != "caller-9" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestTokenHandler_ValidatesInput(t *testing.T) {
	h := TokenHandler{Rooms: &fakeRoomService{}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/get-token", strings.NewReader(`{"identity":"x"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d for missing room_id", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/get-token", strings.NewReader(`{"room_id":"r"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d for missing identity", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/get-token", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d for GET without params", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/get-token", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d for DELETE", rr.Code)
	}
}

func TestTokenHandler_AcceptsQueryParams(t *testing.T) {
	rooms := &fakeRoomService{}
	h := TokenHandler{Rooms: rooms}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/get-token?room_id=room-1&identity=caller-9", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if len(rooms.ensured) != 1 || rooms.ensured[0] != "room-1" {
		t.Fatalf("ensured=%v", rooms.ensured)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token != "tok-room-1-caller-9" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestTokenHandler_AdapterErrorSanitized(t *testing.T) {
	rooms := &fakeRoomService{ensureErr: core.NewAdapterError("create_room", errors.New("dial tcp: refused"))}
	h := TokenHandler{Rooms: rooms}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/get-token",
		strings.NewReader(`{"room_id":"r","identity":"i"}`)))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "dial tcp") {
		t.Fatalf("body leaks transport detail: %s", rr.Body.String())
	}
}

func TestRoomsHandler_EmptyListIsNotAnError(t *testing.T) {
	h := RoomsHandler{Rooms: &fakeRoomService{}}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	var resp roomsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Rooms == nil || len(resp.Rooms) != 0 {
		t.Fatalf("rooms=%v, want empty non-nil list", resp.Rooms)
	}
}
