package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warmline/warmline/pkg/core"
)

type fakeRoomService struct {
	t *testing.T

	createCalls int
	rooms       []wireRoom
	participants map[string][]ParticipantInfo
	removed      []string

	failWith int
}

func (f *fakeRoomService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/twirp/livekit.RoomService/", func(w http.ResponseWriter, r *http.Request) {
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			_, _ = w.Write([]byte(`{"code":"internal","msg":"boom"}`))
			return
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"unauthenticated","msg":"missing token"}`))
			return
		}

		method := strings.TrimPrefix(r.URL.Path, "/twirp/livekit.RoomService/")
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)

		switch method {
		case "CreateRoom":
			f.createCalls++
			name, _ := req["name"].(string)
			for _, room := range f.rooms {
				if room.Name == name {
					w.WriteHeader(http.StatusConflict)
					_, _ = w.Write([]byte(`{"code":"already_exists","msg":"room already exists"}`))
					return
				}
			}
			room := wireRoom{Name: name, SID: "RM_" + name, CreationTime: 1700000000}
			f.rooms = append(f.rooms, room)
			_ = json.NewEncoder(w).Encode(room)
		case "ListRooms":
			_ = json.NewEncoder(w).Encode(map[string]any{"rooms": f.rooms})
		case "ListParticipants":
			roomName, _ := req["room"].(string)
			_ = json.NewEncoder(w).Encode(map[string]any{"participants": f.participants[roomName]})
		case "RemoveParticipant":
			identity, _ := req["identity"].(string)
			f.removed = append(f.removed, identity)
			_, _ = w.Write([]byte(`{}`))
		default:
			f.t.Fatalf("unexpected method %q", method)
		}
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeRoomService) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "test-secret", WithHTTPClient(srv.Client()))
}

func TestEnsureRoomIsIdempotent(t *testing.T) {
	t.Parallel()

	f := &fakeRoomService{t: t}
	client := newTestClient(t, f)
	ctx := context.Background()

	first, err := client.EnsureRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("first EnsureRoom: %v", err)
	}
	if first.ID != "room-1" {
		t.Fatalf("room id = %q", first.ID)
	}

	second, err := client.EnsureRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("second EnsureRoom: %v", err)
	}
	if second.ID != "room-1" {
		t.Fatalf("room id = %q", second.ID)
	}
	if f.createCalls != 2 {
		t.Fatalf("createCalls = %d, want 2", f.createCalls)
	}
}

func TestListRoomsEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &fakeRoomService{t: t})

	rooms, err := client.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("rooms = %v, want empty", rooms)
	}
}

func TestRemoveParticipantNotFound(t *testing.T) {
	t.Parallel()

	f := &fakeRoomService{t: t, participants: map[string][]ParticipantInfo{
		"room-42": {{Identity: "agent-b", SID: "PA_1"}},
	}}
	client := newTestClient(t, f)

	res, err := client.RemoveParticipant(context.Background(), "room-42", "agent-a")
	if err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if res.Found {
		t.Fatalf("expected Found=false for absent identity")
	}
	if len(f.removed) != 0 {
		t.Fatalf("removal was issued for an absent identity")
	}
}

func TestRemoveParticipantFound(t *testing.T) {
	t.Parallel()

	f := &fakeRoomService{t: t, participants: map[string][]ParticipantInfo{
		"room-42": {{Identity: "agent-a", SID: "PA_1"}},
	}}
	client := newTestClient(t, f)

	res, err := client.RemoveParticipant(context.Background(), "room-42", "agent-a")
	if err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if !res.Found {
		t.Fatalf("expected Found=true")
	}
	if len(f.removed) != 1 || f.removed[0] != "agent-a" {
		t.Fatalf("removed = %v", f.removed)
	}
}

func TestTransportFailureSurfacesAsAdapterError(t *testing.T) {
	t.Parallel()

	f := &fakeRoomService{t: t, failWith: http.StatusBadGateway}
	client := newTestClient(t, f)

	_, err := client.ListRooms(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("error is not a core.Error: %v", err)
	}
	if coreErr.Type != core.ErrAdapter {
		t.Fatalf("type = %q, want %q", coreErr.Type, core.ErrAdapter)
	}
	if coreErr.Op != "list_rooms" {
		t.Fatalf("op = %q", coreErr.Op)
	}
}
