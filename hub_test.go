package server

import (
	"encoding/json"
	"testing"
)

func TestHubBroadcastWithoutObservers(t *testing.T) {
	hub := NewHub(nil)
	if got := hub.ObserverCount(); got != 0 {
		t.Fatalf("observer count: got %d want 0", got)
	}
	// Must not panic or block with nobody listening.
	hub.Broadcast(Snapshot{Tick: 1})
}

func TestStateFrameFlattensSnapshot(t *testing.T) {
	frame := stateFrame{
		Type: "state",
		Snapshot: Snapshot{
			Tick:   9,
			Agents: []AgentView{{ID: "agent-1", Label: "alert:AttackTarget"}},
		},
		ServerTime: 1234,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "state" {
		t.Fatalf("type field: %v", decoded["type"])
	}
	// The snapshot embeds at the top level, not under a nested key.
	if _, nested := decoded["Snapshot"]; nested {
		t.Fatalf("snapshot must flatten into the frame: %s", data)
	}
	if decoded["tick"] != float64(9) {
		t.Fatalf("tick field: %v", decoded["tick"])
	}
}
