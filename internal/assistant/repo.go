package assistant

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
)

// Repository owns assistant chat persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a repository bound to the provided database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindChatByUserAndDate loads the chat for one user on one UTC calendar day.
func (r *Repository) FindChatByUserAndDate(ctx context.Context, userID uuid.UUID, chatDate string) (*models.AssistantChat, error) {
	var chat models.AssistantChat
	err := r.db.WithContext(ctx).
		First(&chat, "user_id = ? AND chat_date = ?", userID, chatDate).
		Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// CreateChat inserts a new chat thread.
func (r *Repository) CreateChat(ctx context.Context, chat *models.AssistantChat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// FindChatByID loads a chat with its messages oldest first.
func (r *Repository) FindChatByID(ctx context.Context, chatID uuid.UUID) (*models.AssistantChat, error) {
	var chat models.AssistantChat
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&chat, "id = ?", chatID).
		Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChatsByUser returns the user's chat threads newest day first, without
// message bodies.
func (r *Repository) ListChatsByUser(ctx context.Context, userID uuid.UUID) ([]models.AssistantChat, error) {
	var chats []models.AssistantChat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("chat_date DESC").
		Find(&chats).
		Error
	return chats, err
}

// DeleteChat removes a chat and its messages in one transaction. Returns
// false when no chat row matched.
func (r *Repository) DeleteChat(ctx context.Context, chatID uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("chat_id = ?", chatID).
			Delete(&models.AssistantMessage{}).
			Error; err != nil {
			return err
		}

		result := tx.
			Where("id = ?", chatID).
			Delete(&models.AssistantChat{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CreateMessage appends one message row to a chat.
func (r *Repository) CreateMessage(ctx context.Context, message *models.AssistantMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}
