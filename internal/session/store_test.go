package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestMemoryStoreGetCreates(t *testing.T) {
	store := NewMemoryStore(1000)

	s, err := store.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if s.ID != "s1" {
		t.Errorf("expected id s1, got %q", s.ID)
	}
	if s.Balance != 1000 {
		t.Errorf("new session should be seeded with 1000, got %f", s.Balance)
	}
	if len(s.Messages) != 0 {
		t.Errorf("new session should have no messages, got %d", len(s.Messages))
	}
}

func TestMemoryStoreGetReturnsClone(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	s1, _ := store.Get(ctx, "s1")
	s1.Balance = 0
	s1.AddMessage(RoleUser, "mutated without Put")

	s2, _ := store.Get(ctx, "s1")
	if s2.Balance != 1000 {
		t.Errorf("mutations before Put must not be visible, balance = %f", s2.Balance)
	}
	if len(s2.Messages) != 0 {
		t.Errorf("mutations before Put must not be visible, messages = %d", len(s2.Messages))
	}
}

func TestMemoryStorePutThenGet(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	s, _ := store.Get(ctx, "s1")
	s.Balance = 900
	s.AddMessage(RoleUser, "bet 100 on Arsenal")
	s.Match = &MatchContext{FixtureID: "fx1", HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Balance != 900 {
		t.Errorf("balance = %f, want 900", got.Balance)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(got.Messages))
	}
	if got.Match == nil || got.Match.FixtureID != "fx1" {
		t.Errorf("match context not persisted: %+v", got.Match)
	}
}

func TestMemoryStorePutClones(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	s, _ := store.Get(ctx, "s1")
	_ = store.Put(ctx, s)
	// Mutations after Put must not leak into the stored copy.
	s.Balance = -1

	got, _ := store.Get(ctx, "s1")
	if got.Balance != 1000 {
		t.Errorf("post-Put mutation leaked, balance = %f", got.Balance)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	if _, err := store.Get(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Get(\"\") = %v, want ErrEmptyID", err)
	}
	if err := store.Put(ctx, nil); !errors.Is(err, ErrNilState) {
		t.Errorf("Put(nil) = %v, want ErrNilState", err)
	}
	if err := store.Put(ctx, &State{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Put(no id) = %v, want ErrEmptyID", err)
	}
}

func TestCrossSessionIsolation(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	a, _ := store.Get(ctx, "a")
	a.Balance = 1
	_ = store.Put(ctx, a)

	b, _ := store.Get(ctx, "b")
	if b.Balance != 1000 {
		t.Errorf("session b saw session a's balance: %f", b.Balance)
	}
}

// TestSameSessionSerialization drives concurrent read-modify-write
// cycles through Lock and checks no update is lost.
func TestSameSessionSerialization(t *testing.T) {
	store := NewMemoryStore(1000)
	ctx := context.Background()

	const workers = 8
	const rounds = 25

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				unlock := store.Lock("s1")
				s, err := store.Get(ctx, "s1")
				if err != nil {
					t.Errorf("Get() failed: %v", err)
					unlock()
					return
				}
				s.Balance -= 1
				if err := store.Put(ctx, s); err != nil {
					t.Errorf("Put() failed: %v", err)
				}
				unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "s1")
	want := 1000.0 - workers*rounds
	if got.Balance != want {
		t.Errorf("lost update: balance = %f, want %f", got.Balance, want)
	}
}

func TestViewIsReadOnly(t *testing.T) {
	s := NewState("s1", 1000)
	s.Bets = []Bet{{ID: "b1", Stake: 50}}
	v := s.View()

	bets := v.Bets()
	bets[0].Stake = 9999
	if s.Bets[0].Stake != 50 {
		t.Error("View.Bets() must return a copy")
	}

	if _, ok := v.Match(); ok {
		t.Error("empty match context should report ok=false")
	}
}

func TestStateClone(t *testing.T) {
	s := NewState("s1", 1000)
	s.AddMessage(RoleUser, "hi")
	s.Match = &MatchContext{FixtureID: "fx1"}
	s.Bets = []Bet{{ID: "b1"}}

	cp := s.Clone()
	cp.Messages[0].Content = "changed"
	cp.Match.FixtureID = "fx2"
	cp.Bets[0].ID = "b2"

	if s.Messages[0].Content != "hi" || s.Match.FixtureID != "fx1" || s.Bets[0].ID != "b1" {
		t.Error("Clone() must not share memory with the original")
	}
}

func TestAddToolResult(t *testing.T) {
	s := NewState("s1", 1000)
	s.AddToolResult("getFixturesByDate", true, map[string]any{"count": 2, "first": "fx1"})

	if len(s.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(s.Messages))
	}
	m := s.Messages[0]
	if m.Role != RoleTool || m.ToolName != "getFixturesByDate" || !m.OK {
		t.Errorf("unexpected tool entry: %+v", m)
	}
	if !strings.Contains(string(m.Payload), `"first":"fx1"`) {
		t.Errorf("payload lost tool output: %s", m.Payload)
	}
	if m.At.IsZero() {
		t.Error("tool entry must be timestamped")
	}
}

func TestAddToolResultUnencodablePayload(t *testing.T) {
	s := NewState("s1", 1000)
	s.AddToolResult("getBalance", true, map[string]any{"bad": func() {}})

	m := s.Messages[0]
	if m.OK {
		t.Error("unencodable payload must not be recorded as a success")
	}
	if len(m.Payload) == 0 {
		t.Error("the entry should still carry an error note")
	}
}

func TestToolMessageSurvivesJSONRoundTrip(t *testing.T) {
	s := NewState("s1", 1000)
	s.AddToolResult("getOddsForMatch", true, map[string]any{"fixtureId": "fx1", "homeOdds": 1.8})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back State
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	m := back.Messages[0]
	if m.Role != RoleTool || m.ToolName != "getOddsForMatch" || !m.OK {
		t.Errorf("tool entry mangled by round trip: %+v", m)
	}
	if !strings.Contains(string(m.Payload), "fx1") {
		t.Errorf("payload mangled by round trip: %s", m.Payload)
	}
}
