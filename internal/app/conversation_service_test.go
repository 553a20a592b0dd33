package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ragserver/internal/model"
	"ragserver/internal/store"
)

type failingAppendStore struct {
	store.ConversationStore
}

func (f *failingAppendStore) AppendTurn(ctx context.Context, conversationID string, userMsg, assistantMsg *model.Message, newTitle string) error {
	return errors.New("disk full")
}

func newConversationService(convStore store.ConversationStore, chat *fakeChat) *ConversationService {
	pipeline := newTestPipeline(seededChunkStore("grounding text"), chat)
	return NewConversationService(convStore, nil, pipeline, nil, 0)
}

func TestCreateDefaultsTitle(t *testing.T) {
	svc := newConversationService(store.NewMemoryConversationStore(), &fakeChat{})

	conversation, err := svc.Create(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conversation.Title != model.DefaultConversationTitle {
		t.Errorf("title %q, want default", conversation.Title)
	}
}

func TestSendMessageAppendsAtomicPair(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	svc := newConversationService(convStore, &fakeChat{content: "answer [1]"})

	conversation, _ := convStore.Create(context.Background(), model.DefaultConversationTitle)

	turn, err := svc.SendMessage(context.Background(), conversation.ID, "what does the text say?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if turn.UserMessage.Role != model.RoleUser || turn.UserMessage.Content != "what does the text say?" {
		t.Errorf("user message %+v", turn.UserMessage)
	}
	if turn.AssistantMessage.Role != model.RoleAssistant {
		t.Errorf("assistant role %q", turn.AssistantMessage.Role)
	}
	if turn.AssistantMessage.TimingMS == nil {
		t.Error("assistant message missing timing")
	}
	if turn.AssistantMessage.TokenUsage.TotalTokens != 30 {
		t.Errorf("token usage %+v", turn.AssistantMessage.TokenUsage)
	}

	stored, err := convStore.Get(context.Background(), conversation.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(stored.Messages))
	}
	if stored.Messages[0].Role != model.RoleUser || stored.Messages[1].Role != model.RoleAssistant {
		t.Error("message pair out of order")
	}
}

func TestSendMessageDerivesTitleOnFirstTurn(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	svc := newConversationService(convStore, &fakeChat{content: "answer [1]"})

	conversation, _ := convStore.Create(context.Background(), model.DefaultConversationTitle)

	query := "Explain neural networks in simple terms for beginners please"
	if _, err := svc.SendMessage(context.Background(), conversation.ID, query); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	stored, _ := convStore.Get(context.Background(), conversation.ID)
	wantTitle := string([]rune(query)[:50]) + "..."
	if stored.Title != wantTitle {
		t.Errorf("title %q, want %q", stored.Title, wantTitle)
	}

	// a second turn must not rewrite the derived title
	if _, err := svc.SendMessage(context.Background(), conversation.ID, "follow-up"); err != nil {
		t.Fatalf("second SendMessage: %v", err)
	}
	stored, _ = convStore.Get(context.Background(), conversation.ID)
	if stored.Title != wantTitle {
		t.Errorf("title changed on second turn: %q", stored.Title)
	}
}

func TestSendMessageShortQueryTitleUntruncated(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	svc := newConversationService(convStore, &fakeChat{content: "answer [1]"})

	conversation, _ := convStore.Create(context.Background(), model.DefaultConversationTitle)
	if _, err := svc.SendMessage(context.Background(), conversation.ID, "short question"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	stored, _ := convStore.Get(context.Background(), conversation.ID)
	if stored.Title != "short question" {
		t.Errorf("title %q, want query verbatim", stored.Title)
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc := newConversationService(store.NewMemoryConversationStore(), &fakeChat{})

	_, err := svc.SendMessage(context.Background(), "missing-id", "hello")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("got %v, want ErrConversationNotFound", err)
	}
}

func TestSendMessagePersistFailureCarriesResult(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	conversation, _ := convStore.Create(context.Background(), model.DefaultConversationTitle)

	svc := newConversationService(&failingAppendStore{convStore}, &fakeChat{content: "generated [1]"})

	_, err := svc.SendMessage(context.Background(), conversation.ID, "question")
	if !errors.Is(err, ErrTurnNotSaved) {
		t.Fatalf("got %v, want ErrTurnNotSaved", err)
	}
	var notSaved *TurnNotSavedError
	if !errors.As(err, &notSaved) {
		t.Fatalf("error type %T", err)
	}
	if notSaved.Result == nil || !strings.Contains(notSaved.Result.AssistantMessage.Content, "generated") {
		t.Error("generated turn not carried on persist failure")
	}

	// the conversation itself is untouched
	stored, _ := convStore.Get(context.Background(), conversation.ID)
	if len(stored.Messages) != 0 {
		t.Errorf("partial write: %d messages", len(stored.Messages))
	}
	if stored.Title != model.DefaultConversationTitle {
		t.Errorf("title changed on failed turn: %q", stored.Title)
	}
}

func TestSendMessageGenerationFailureLeavesStateUntouched(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	conversation, _ := convStore.Create(context.Background(), model.DefaultConversationTitle)

	svc := newConversationService(convStore, &fakeChat{err: errors.New("llm down")})

	if _, err := svc.SendMessage(context.Background(), conversation.ID, "question"); err == nil {
		t.Fatal("want error on generation failure")
	}
	stored, _ := convStore.Get(context.Background(), conversation.ID)
	if len(stored.Messages) != 0 || stored.Title != model.DefaultConversationTitle {
		t.Error("failed turn mutated conversation state")
	}
}

func TestUpdateTitleAndDelete(t *testing.T) {
	convStore := store.NewMemoryConversationStore()
	svc := newConversationService(convStore, &fakeChat{})

	conversation, _ := convStore.Create(context.Background(), "old")
	if err := svc.UpdateTitle(context.Background(), conversation.ID, "new"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	stored, _ := convStore.Get(context.Background(), conversation.ID)
	if stored.Title != "new" {
		t.Errorf("title %q", stored.Title)
	}

	if err := svc.Delete(context.Background(), conversation.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), conversation.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("got %v after delete, want ErrConversationNotFound", err)
	}
	if err := svc.Delete(context.Background(), conversation.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("double delete: got %v", err)
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("hi"); got != "hi" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("я", 60)
	got := deriveTitle(long)
	if got != strings.Repeat("я", 50)+"..." {
		t.Errorf("rune-based truncation broken: %q", got)
	}
}
