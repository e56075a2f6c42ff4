package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
)

const chatDateLayout = "2006-01-02"

// Service runs the assistant chat feature: one thread per user per UTC day,
// replies produced by the configured engine.
type Service interface {
	InitializeToday(ctx context.Context, userID uuid.UUID) (*models.AssistantChat, error)
	SendMessage(ctx context.Context, userID, chatID uuid.UUID, content string) (*MessageResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.AssistantChat, error)
	Detail(ctx context.Context, userID, chatID uuid.UUID) (*models.AssistantChat, error)
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
}

// MessageResult carries both turns of one exchange plus the products the
// engine recommended.
type MessageResult struct {
	UserMessage      models.AssistantMessage `json:"user_message"`
	AssistantMessage models.AssistantMessage `json:"assistant_message"`
	Products         []models.Product        `json:"products"`
}

type service struct {
	repo   *Repository
	engine Engine
	now    func() time.Time
}

// NewService wires assistant dependencies.
func NewService(repo *Repository, engine Engine) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant repository required")
	}
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assistant engine required")
	}
	return &service{repo: repo, engine: engine, now: time.Now}, nil
}

// InitializeToday returns the caller's chat for the current UTC day, creating
// it when absent. A concurrent create racing on the unique index resolves to
// the winner's row.
func (s *service) InitializeToday(ctx context.Context, userID uuid.UUID) (*models.AssistantChat, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	today := s.now().UTC().Format(chatDateLayout)
	chat, err := s.repo.FindChatByUserAndDate(ctx, userID, today)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}

	chat = &models.AssistantChat{
		ID:       uuid.New(),
		UserID:   userID,
		ChatDate: today,
		Title:    "Build advice " + today,
	}
	if err := s.repo.CreateChat(ctx, chat); err != nil {
		if db.IsUniqueViolation(err, "") {
			return s.loadExisting(ctx, userID, today)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat")
	}
	return chat, nil
}

func (s *service) loadExisting(ctx context.Context, userID uuid.UUID, chatDate string) (*models.AssistantChat, error) {
	chat, err := s.repo.FindChatByUserAndDate(ctx, userID, chatDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat after race")
	}
	return chat, nil
}

func (s *service) SendMessage(ctx context.Context, userID, chatID uuid.UUID, content string) (*MessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content required")
	}

	chat, err := s.loadOwned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	userMessage := models.AssistantMessage{
		ID:      uuid.New(),
		ChatID:  chat.ID,
		Role:    enums.ChatRoleUser,
		Content: content,
	}
	if err := s.repo.CreateMessage(ctx, &userMessage); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store user message")
	}

	reply, err := s.engine.Reply(ctx, chat.Messages, content)
	if err != nil {
		return nil, err
	}

	assistantMessage := models.AssistantMessage{
		ID:      uuid.New(),
		ChatID:  chat.ID,
		Role:    enums.ChatRoleAssistant,
		Content: reply.Text,
	}
	for _, product := range reply.Products {
		assistantMessage.ProductIDs = append(assistantMessage.ProductIDs, product.ID)
	}
	if err := s.repo.CreateMessage(ctx, &assistantMessage); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store assistant message")
	}

	return &MessageResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		Products:         reply.Products,
	}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]models.AssistantChat, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	chats, err := s.repo.ListChatsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chats")
	}
	return chats, nil
}

func (s *service) Detail(ctx context.Context, userID, chatID uuid.UUID) (*models.AssistantChat, error) {
	return s.loadOwned(ctx, userID, chatID)
}

func (s *service) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, userID, chatID); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteChat(ctx, chatID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete chat")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, userID, chatID uuid.UUID) (*models.AssistantChat, error) {
	if chatID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}
	if chat.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "chat belongs to another user")
	}
	return chat, nil
}
