package event

import (
	"testing"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

func TestDecodeStatusChanged(t *testing.T) {
	raw := []byte(`{"eventType":"CHANGED","userId":42,"status":"GAME","timestamp":"2025-06-01T10:00:00.000Z"}`)

	env, err := Decode(TopicUserStatus, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Kind != KindStatusChanged {
		t.Fatalf("kind = %v, want KindStatusChanged", env.Kind)
	}
	if env.StatusChanged.UserID != 42 {
		t.Errorf("userID = %d, want 42", env.StatusChanged.UserID)
	}
	if env.StatusChanged.Status != entity.StatusGame {
		t.Errorf("status = %s, want GAME", env.StatusChanged.Status)
	}
	want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !env.StatusChanged.EventTime.Equal(want) {
		t.Errorf("eventTime = %v, want %v", env.StatusChanged.EventTime, want)
	}
}

func TestDecodeStatusChangedInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing userId", `{"eventType":"CHANGED","status":"ONLINE","timestamp":"2025-06-01T10:00:00Z"}`},
		{"negative userId", `{"eventType":"CHANGED","userId":-1,"status":"ONLINE","timestamp":"2025-06-01T10:00:00Z"}`},
		{"unknown status", `{"eventType":"CHANGED","userId":1,"status":"INVISIBLE","timestamp":"2025-06-01T10:00:00Z"}`},
		{"missing timestamp", `{"eventType":"CHANGED","userId":1,"status":"ONLINE"}`},
		{"bad timestamp", `{"eventType":"CHANGED","userId":1,"status":"ONLINE","timestamp":"yesterday"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(TopicUserStatus, []byte(tc.raw)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDecodeUnknownTypeIgnored(t *testing.T) {
	cases := []struct {
		name  string
		topic string
		raw   string
	}{
		{"unknown status type", TopicUserStatus, `{"eventType":"HEARTBEAT","userId":1}`},
		{"unknown friend type", TopicFriend, `{"eventType":"POKE","fromUserId":1,"toUserId":2}`},
		{"rejected", TopicFriend, `{"eventType":"REJECTED","fromUserId":1,"toUserId":2}`},
		{"unknown auth type", TopicAuth, `{"eventType":"REFRESH","userId":1}`},
		{"no eventType at all", TopicImage, `{"userId":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode(tc.topic, []byte(tc.raw))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if env.Kind != KindIgnored {
				t.Errorf("kind = %v, want KindIgnored", env.Kind)
			}
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode(TopicUserStatus, []byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestDecodeFriendEvents(t *testing.T) {
	env, err := Decode(TopicFriend, []byte(`{"eventType":"ADDED","userAId":7,"userBId":8,"timestamp":"2025-06-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("Decode ADDED: %v", err)
	}
	if env.Kind != KindFriendAdded || env.FriendAdded.UserAID != 7 || env.FriendAdded.UserBID != 8 {
		t.Errorf("unexpected ADDED envelope: %+v", env)
	}

	pairs := []struct {
		typ  string
		kind Kind
	}{
		{"REQUESTED", KindFriendRequested},
		{"ACCEPTED", KindFriendAccepted},
		{"BLOCK", KindFriendBlocked},
		{"UNBLOCK", KindFriendUnblocked},
	}
	for _, p := range pairs {
		env, err := Decode(TopicFriend, []byte(`{"eventType":"`+p.typ+`","fromUserId":3,"toUserId":4}`))
		if err != nil {
			t.Fatalf("Decode %s: %v", p.typ, err)
		}
		if env.Kind != p.kind {
			t.Errorf("%s kind = %v, want %v", p.typ, env.Kind, p.kind)
		}
		if env.FriendPair.FromUserID != 3 || env.FriendPair.ToUserID != 4 {
			t.Errorf("%s pair = %+v", p.typ, env.FriendPair)
		}
	}

	if _, err := Decode(TopicFriend, []byte(`{"eventType":"BLOCK","fromUserId":3}`)); err == nil {
		t.Error("expected error for pair event missing toUserId")
	}
}

func TestDecodeLogoutAndAvatar(t *testing.T) {
	env, err := Decode(TopicAuth, []byte(`{"eventType":"LOGOUT","userId":5}`))
	if err != nil {
		t.Fatalf("Decode LOGOUT: %v", err)
	}
	if env.Kind != KindAuthLogout || env.Logout.UserID != 5 {
		t.Errorf("unexpected LOGOUT envelope: %+v", env)
	}

	env, err = Decode(TopicImage, []byte(`{"eventType":"UPLOADED","userId":5,"avatarUrl":"https://cdn/x.png"}`))
	if err != nil {
		t.Fatalf("Decode UPLOADED: %v", err)
	}
	if env.Kind != KindAvatarUploaded || env.Avatar.AvatarURL != "https://cdn/x.png" {
		t.Errorf("unexpected UPLOADED envelope: %+v", env)
	}

	if _, err := Decode(TopicImage, []byte(`{"eventType":"UPLOADED","userId":5}`)); err == nil {
		t.Error("expected error for UPLOADED without avatarUrl")
	}
}
