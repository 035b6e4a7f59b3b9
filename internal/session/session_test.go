package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"document-gpt/internal/conversation"
)

type echoResponder struct{}

func (echoResponder) Converse(ctx context.Context, turns []conversation.Turn) []conversation.Turn {
	last := len(turns) - 1
	turns[last].Response = "re: " + turns[last].Query
	return turns
}

func TestConverseAssignsSessionID(t *testing.T) {
	m := NewManager(echoResponder{})

	id, reply, err := m.Converse(context.Background(), "", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a generated session id")
	}
	if reply != "re: hello" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestConverseRejectsTurnWhenIDGenerationFails(t *testing.T) {
	uuid.SetRand(failingReader{})
	defer uuid.SetRand(nil)

	m := NewManager(echoResponder{})
	_, _, err := m.Converse(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("expected an error when no session id can be generated")
	}
	if turns := m.History(""); turns != nil {
		t.Fatalf("turn must not land in a shared empty session: %+v", turns)
	}
}

func TestConverseAppendsTurnsInOrder(t *testing.T) {
	m := NewManager(echoResponder{})

	id, _, err := m.Converse(context.Background(), "", "first")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Converse(context.Background(), id, "second"); err != nil {
		t.Fatal(err)
	}

	turns := m.History(id)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Query != "first" || turns[1].Query != "second" {
		t.Fatalf("turns out of order: %+v", turns)
	}
	if turns[0].Response != "re: first" || turns[1].Response != "re: second" {
		t.Fatalf("responses not filled: %+v", turns)
	}
}

func TestConverseSerializesConcurrentTurns(t *testing.T) {
	m := NewManager(echoResponder{})
	id, _, err := m.Converse(context.Background(), "", "seed")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Converse(context.Background(), id, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	turns := m.History(id)
	if len(turns) != 21 {
		t.Fatalf("expected 21 turns, got %d", len(turns))
	}
	for _, turn := range turns {
		if turn.Response == "" {
			t.Fatalf("turn left unanswered: %+v", turn)
		}
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	m := NewManager(echoResponder{})
	if turns := m.History("nope"); turns != nil {
		t.Fatalf("expected nil history, got %+v", turns)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	// a different key must not block
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	// same key locks again fine after unlock
	unlock := km.Lock("a")
	unlock()
}
