package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/internal/catalog"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/llm"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(_ context.Context, _ []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	engine := newRuleEngine(t, conn)
	svc, err := NewService(repo, engine)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestInitializeTodayFindOrCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.InitializeToday(ctx, userID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if first.ChatDate != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("unexpected chat date %q", first.ChatDate)
	}

	second, err := svc.InitializeToday(ctx, userID)
	if err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the same chat on repeat initialize")
	}

	// A different user gets their own thread for the same day.
	other, err := svc.InitializeToday(ctx, uuid.New())
	if err != nil {
		t.Fatalf("other user initialize: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("chat leaked across users")
	}
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	chat, err := svc.InitializeToday(ctx, userID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	result, err := svc.SendMessage(ctx, userID, chat.ID, "what is the meaning of life")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if result.UserMessage.Role != enums.ChatRoleUser {
		t.Fatalf("unexpected user role %s", result.UserMessage.Role)
	}
	if result.AssistantMessage.Role != enums.ChatRoleAssistant {
		t.Fatalf("unexpected assistant role %s", result.AssistantMessage.Role)
	}

	stored, err := repo.FindChatByID(ctx, chat.ID)
	if err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(stored.Messages))
	}
	if stored.Messages[0].Role != enums.ChatRoleUser || stored.Messages[1].Role != enums.ChatRoleAssistant {
		t.Fatal("messages out of order")
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	chat, err := svc.InitializeToday(ctx, userID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = svc.SendMessage(ctx, userID, chat.ID, "   ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation got %v", err)
	}

	_, err = svc.SendMessage(ctx, uuid.New(), chat.ID, "hello")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}

	_, err = svc.SendMessage(ctx, userID, uuid.New(), "hello")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	chat, err := svc.InitializeToday(ctx, userID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := svc.SendMessage(ctx, userID, chat.ID, "hello"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	if err := svc.Delete(ctx, uuid.New(), chat.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign delete, got %v", err)
	}
	if err := svc.Delete(ctx, userID, chat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindChatByID(ctx, chat.ID); err == nil {
		t.Fatal("expected chat gone")
	}
}

func TestHistoryListsOwnChatsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if _, err := svc.InitializeToday(ctx, alice); err != nil {
		t.Fatalf("alice initialize: %v", err)
	}
	if _, err := svc.InitializeToday(ctx, bob); err != nil {
		t.Fatalf("bob initialize: %v", err)
	}

	chats, err := svc.History(ctx, alice)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(chats) != 1 || chats[0].UserID != alice {
		t.Fatalf("unexpected history %+v", chats)
	}
}

func TestModelEngineResolvesProductIDs(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	gpus := seedCategory(t, conn, "Graphics Cards", "graphics-cards")
	product := seedProduct(t, conn, gpus.ID, "Octane 4060", 29900, 10)

	catalogRepo := catalog.NewRepository(conn)
	fallback := newRuleEngine(t, conn)
	engine, err := NewModelEngine(stubCompleter{
		reply: `{"reply": "Go with the Octane 4060.", "product_ids": ["` + product.ID.String() + `", "not-a-uuid", "` + uuid.New().String() + `"]}`,
	}, catalogRepo, fallback, nil)
	if err != nil {
		t.Fatalf("new model engine: %v", err)
	}

	reply, err := engine.Reply(ctx, nil, "which gpu?")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Text != "Go with the Octane 4060." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	// Unparseable and unknown ids are dropped.
	if len(reply.Products) != 1 || reply.Products[0].ID != product.ID {
		t.Fatalf("unexpected products %+v", reply.Products)
	}
}

func TestModelEngineFallsBackOnFailure(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	gpus := seedCategory(t, conn, "Graphics Cards", "graphics-cards")
	seedProduct(t, conn, gpus.ID, "Octane 4060", 29900, 10)

	catalogRepo := catalog.NewRepository(conn)
	fallback := newRuleEngine(t, conn)
	engine, err := NewModelEngine(stubCompleter{err: context.DeadlineExceeded}, catalogRepo, fallback, nil)
	if err != nil {
		t.Fatalf("new model engine: %v", err)
	}

	reply, err := engine.Reply(ctx, nil, "which gpu?")
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if !strings.Contains(reply.Text, "Octane 4060") {
		t.Fatalf("expected rule engine recommendation, got %q", reply.Text)
	}

	// Garbage payloads also fall back instead of erroring.
	engine, err = NewModelEngine(stubCompleter{reply: "not json"}, catalogRepo, fallback, nil)
	if err != nil {
		t.Fatalf("new model engine: %v", err)
	}
	if _, err := engine.Reply(ctx, nil, "which gpu?"); err != nil {
		t.Fatalf("expected fallback on bad payload, got %v", err)
	}
}
