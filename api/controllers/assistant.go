package controllers

import (
	"net/http"

	"github.com/gearvault/gearvault-backend/api/responses"
	"github.com/gearvault/gearvault-backend/api/validators"
	assistantsvc "github.com/gearvault/gearvault-backend/internal/assistant"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/logger"
)

type chatMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// InitializeChat returns today's chat thread, creating it on first call.
// Repeat calls on the same day return the same thread.
func InitializeChat(svc assistantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chat, err := svc.InitializeToday(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"chat": chat})
	}
}

// SendChatMessage appends a user turn, produces the assistant reply, and
// returns both with any recommended products.
func SendChatMessage(svc assistantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := validators.ParseUUIDParam(r, "chatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload chatMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.SendMessage(ctx, userID, chatID, payload.Content)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListChats returns the caller's chat threads newest day first.
func ListChats(svc assistantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chats, err := svc.History(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"chats": chats})
	}
}

// GetChat returns one chat thread with its messages.
func GetChat(svc assistantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := validators.ParseUUIDParam(r, "chatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chat, err := svc.Detail(ctx, userID, chatID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"chat": chat})
	}
}

// DeleteChat removes a chat thread and its messages.
func DeleteChat(svc assistantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := validators.ParseUUIDParam(r, "chatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, chatID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}
