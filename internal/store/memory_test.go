package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ragserver/internal/model"
)

func TestMemoryConversationLifecycle(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "first")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Title != "first" {
		t.Fatalf("created %+v", created)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != created.ID || len(got.Messages) != 0 {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	if err := s.UpdateTitle(ctx, created.ID, "renamed"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	got, _ = s.Get(ctx, created.ID)
	if got.Title != "renamed" {
		t.Errorf("title %q", got.Title)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v", err)
	}
}

func TestMemoryAppendTurn(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, "New Conversation")
	userMsg := model.Message{ID: "u1", Role: model.RoleUser, Content: "q"}
	assistantMsg := model.Message{ID: "a1", Role: model.RoleAssistant, Content: "a"}

	if err := s.AppendTurn(ctx, created.ID, &userMsg, &assistantMsg, "derived title"); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	got, _ := s.Get(ctx, created.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].ID != "u1" || got.Messages[1].ID != "a1" {
		t.Error("pair order wrong")
	}
	if got.Title != "derived title" {
		t.Errorf("title %q", got.Title)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) && !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("updated_at not bumped")
	}

	// empty newTitle keeps the existing one
	if err := s.AppendTurn(ctx, created.ID, &userMsg, &assistantMsg, ""); err != nil {
		t.Fatalf("second AppendTurn: %v", err)
	}
	got, _ = s.Get(ctx, created.ID)
	if got.Title != "derived title" {
		t.Errorf("title rewritten: %q", got.Title)
	}

	if err := s.AppendTurn(ctx, "missing", &userMsg, &assistantMsg, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, "t")
	userMsg := model.Message{ID: "u1", Role: model.RoleUser}
	assistantMsg := model.Message{ID: "a1", Role: model.RoleAssistant}
	_ = s.AppendTurn(ctx, created.ID, &userMsg, &assistantMsg, "")

	got, _ := s.Get(ctx, created.ID)
	got.Messages[0].Content = "mutated"
	got.Title = "mutated"

	fresh, _ := s.Get(ctx, created.ID)
	if fresh.Messages[0].Content == "mutated" || fresh.Title == "mutated" {
		t.Error("Get leaked internal state")
	}
}

func TestMemoryListOrdersByUpdatedAt(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	a, _ := s.Create(ctx, "a")
	time.Sleep(2 * time.Millisecond)
	b, _ := s.Create(ctx, "b")
	time.Sleep(2 * time.Millisecond)

	// touching a moves it to the front
	if err := s.UpdateTitle(ctx, a.ID, "a2"); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d, want 2", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != b.ID {
		t.Errorf("order [%s %s], want [%s %s]", list[0].ID, list[1].ID, a.ID, b.ID)
	}

	limited, _ := s.List(ctx, 1)
	if len(limited) != 1 || limited[0].ID != a.ID {
		t.Errorf("limited list %+v", limited)
	}
}

func TestMemoryChunkStore(t *testing.T) {
	s := NewMemoryChunkStore(1536)
	ctx := context.Background()

	stats, _ := s.Stats(ctx)
	if stats.TotalChunks != 0 || stats.TotalDocuments != 0 || stats.Dimension != 1536 {
		t.Fatalf("empty stats %+v", stats)
	}

	doc := &model.Document{Title: "d"}
	chunks := []model.Chunk{{Content: "one"}, {Content: "two"}}
	if err := s.AddDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if doc.ID == "" {
		t.Error("document id not assigned")
	}

	listed, _ := s.ListChunks(ctx)
	if len(listed) != 2 {
		t.Fatalf("got %d chunks", len(listed))
	}
	if listed[0].Content != "one" || listed[1].Content != "two" {
		t.Error("insertion order not preserved")
	}
	if listed[0].ID == 0 || listed[0].ID == listed[1].ID {
		t.Error("chunk ids not assigned uniquely")
	}

	stats, _ = s.Stats(ctx)
	if stats.TotalChunks != 2 || stats.TotalDocuments != 1 {
		t.Errorf("stats %+v", stats)
	}
}
