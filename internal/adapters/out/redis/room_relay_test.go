package redis

import (
	"encoding/json"
	"testing"
)

type localCall struct {
	Op     string
	NS     string
	Room   string
	UserID int64
	Event  string
	Data   string
}

type fakeLocalRooms struct {
	calls []localCall
}

func (f *fakeLocalRooms) Join(ns, roomName string, userID int64) {
	f.calls = append(f.calls, localCall{Op: "join", NS: ns, Room: roomName, UserID: userID})
}

func (f *fakeLocalRooms) Leave(ns, roomName string, userID int64) {
	f.calls = append(f.calls, localCall{Op: "leave", NS: ns, Room: roomName, UserID: userID})
}

func (f *fakeLocalRooms) Emit(ns, roomName, eventName string, data []byte) {
	f.calls = append(f.calls, localCall{Op: "emit", NS: ns, Room: roomName, Event: eventName, Data: string(data)})
}

func (f *fakeLocalRooms) DisconnectRoom(ns, roomName string) {
	f.calls = append(f.calls, localCall{Op: "kick", NS: ns, Room: roomName})
}

func TestRelayAppliesOps(t *testing.T) {
	local := &fakeLocalRooms{}
	relay := NewRoomRelay(nil, local)

	ops := []roomOp{
		{Op: opJoin, NS: "status", Room: "user-status-2", UserID: 1},
		{Op: opLeave, NS: "status", Room: "user-status-2", UserID: 1},
		{Op: opEmit, NS: "friend", Room: "user:4", Event: "friend-request", Data: json.RawMessage(`{"fromUserId":3}`)},
		{Op: opKick, NS: "status", Room: "user:9"},
	}
	for _, op := range ops {
		payload, err := json.Marshal(op)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		relay.apply(payload)
	}

	want := []localCall{
		{Op: "join", NS: "status", Room: "user-status-2", UserID: 1},
		{Op: "leave", NS: "status", Room: "user-status-2", UserID: 1},
		{Op: "emit", NS: "friend", Room: "user:4", Event: "friend-request", Data: `{"fromUserId":3}`},
		{Op: "kick", NS: "status", Room: "user:9"},
	}
	if len(local.calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(local.calls), len(want))
	}
	for i, w := range want {
		if local.calls[i] != w {
			t.Errorf("call[%d] = %+v, want %+v", i, local.calls[i], w)
		}
	}
}

func TestRelayDropsMalformedAndUnknownOps(t *testing.T) {
	local := &fakeLocalRooms{}
	relay := NewRoomRelay(nil, local)

	relay.apply([]byte(`{not json`))
	relay.apply([]byte(`{"op":"teleport","ns":"status","room":"x"}`))

	if len(local.calls) != 0 {
		t.Errorf("calls = %v, want none", local.calls)
	}
}
