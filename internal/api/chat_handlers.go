package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/chat"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/models"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dbTimeout = 5 * time.Second

// chatWithMessages is the POST /api/chats response: the resolved chat plus
// its full ordered message log.
type chatWithMessages struct {
	*models.Chat
	Messages []*models.Message `json:"messages"`
}

// CreateChatHandler resolves the participant pair for the requested
// counterparty and returns the one chat for that pair, creating it on first
// contact.
func CreateChatHandler(resolver *chat.Resolver, chats repository.ChatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req chat.ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		resolved, err := resolver.Resolve(dbctx, identity, req)
		if err != nil {
			writeChatError(w, err)
			return
		}

		messages, err := chats.GetMessages(dbctx, resolved.ID)
		if err != nil {
			writeChatError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatWithMessages{Chat: resolved, Messages: messages})
	}
}

// GetUserChatsHandler lists every chat the caller participates in, in any of
// the four participant slots, without message logs.
func GetUserChatsHandler(chats repository.ChatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		summaries, err := chats.ListForUser(dbctx, identity.ID)
		if err != nil {
			writeChatError(w, err)
			return
		}
		if len(summaries) == 0 {
			http.Error(w, "no chats found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

// GetChatMessagesHandler returns a chat's ordered message log. Only the two
// participants may read it.
func GetChatMessagesHandler(chats repository.ChatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		chatID, err := uuid.Parse(r.PathValue("chatId"))
		if err != nil {
			http.Error(w, "invalid chat id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		chatModel, err := chats.GetByID(dbctx, chatID)
		if err != nil {
			writeChatError(w, err)
			return
		}

		if !chatModel.HasParticipant(identity.ID) {
			http.Error(w, "you only have access to your own chats", http.StatusForbidden)
			return
		}

		messages, err := chats.GetMessages(dbctx, chatID)
		if err != nil {
			writeChatError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messages)
	}
}

// GetShelterChatsHandler lists a shelter's chats for its admin dashboard.
func GetShelterChatsHandler(shelters repository.ShelterRepository, chats repository.ChatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shelterID, err := uuid.Parse(r.PathValue("shelterId"))
		if err != nil {
			http.Error(w, "invalid shelter id", http.StatusBadRequest)
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		shelter, err := shelters.GetShelterByID(dbctx, shelterID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, "shelter not found", http.StatusNotFound)
				return
			}
			log.Printf("[CHATS] Shelter lookup failed: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		summaries, err := chats.ListForShelterAdmin(dbctx, shelter.AdminID)
		if err != nil {
			writeChatError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

// writeChatError maps the chat error taxonomy onto HTTP statuses. Unknown
// errors log the detail and surface a generic 500 body.
func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chat.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, chat.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pgx.ErrNoRows):
		http.Error(w, "chat not found", http.StatusNotFound)
	default:
		log.Printf("[CHATS] Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
