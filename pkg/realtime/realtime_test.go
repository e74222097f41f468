package realtime

import (
	"testing"
	"time"
)

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(4)

	id1, _ := hub.Register()
	id2, _ := hub.Register()
	if hub.Size() != 2 {
		t.Errorf("Expected 2 listeners, got %d", hub.Size())
	}
	if id1 == id2 {
		t.Error("Expected distinct listener ids")
	}

	hub.Unregister(id1)
	if hub.Size() != 1 {
		t.Errorf("Expected 1 listener, got %d", hub.Size())
	}

	// Double unregister is a no-op
	hub.Unregister(id1)
	if hub.Size() != 1 {
		t.Errorf("Expected 1 listener after double unregister, got %d", hub.Size())
	}
}

func TestPublishSearch(t *testing.T) {
	hub := NewHub(4)
	id, ch := hub.Register()
	defer hub.Unregister(id)

	hub.PublishSearch(SearchEvent{Term: "elk meat", ResultCount: 3, QueryTimeMs: 12})

	select {
	case ev := <-ch:
		if ev.Type != "search" {
			t.Errorf("Expected search event, got %q", ev.Type)
		}
		if ev.Search == nil || ev.Search.Term != "elk meat" {
			t.Errorf("Unexpected payload: %+v", ev.Search)
		}
		if ev.Search.At.IsZero() {
			t.Error("Expected timestamp to be filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestPublishFlag(t *testing.T) {
	hub := NewHub(4)
	id, ch := hub.Register()
	defer hub.Unregister(id)

	hub.PublishFlag(FlagEvent{Term: "elk meat", VideoTitle: "Episode 100"})

	select {
	case ev := <-ch:
		if ev.Type != "flag" {
			t.Errorf("Expected flag event, got %q", ev.Type)
		}
		if ev.Flag == nil || ev.Flag.VideoTitle != "Episode 100" {
			t.Errorf("Unexpected payload: %+v", ev.Flag)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestSlowListenerDropsEvents(t *testing.T) {
	hub := NewHub(1)
	id, ch := hub.Register()
	defer hub.Unregister(id)

	// Fill the buffer, then publish more; extra events must be dropped
	// without blocking the publisher.
	hub.PublishSearch(SearchEvent{Term: "one"})
	done := make(chan struct{})
	go func() {
		hub.PublishSearch(SearchEvent{Term: "two"})
		hub.PublishSearch(SearchEvent{Term: "three"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publisher blocked on slow listener")
	}

	ev := <-ch
	if ev.Search.Term != "one" {
		t.Errorf("Expected first event to survive, got %q", ev.Search.Term)
	}
	select {
	case ev := <-ch:
		t.Errorf("Expected later events to be dropped, got %q", ev.Search.Term)
	default:
	}
}
