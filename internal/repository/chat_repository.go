package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Safyd-Zey/backend-shelter/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository is the durable chat store. Participant-pair uniqueness is
// enforced by the database (partial unique indexes per kind), so concurrent
// GetOrCreate calls for the same pair can never fragment history into
// duplicate chats. AppendMessage is the only mutation path for the log.
type ChatRepository interface {
	GetOrCreate(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	AppendMessage(ctx context.Context, chatID, senderID uuid.UUID, text string) (*models.Message, error)
	GetMessages(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSummary, error)
	ListForShelterAdmin(ctx context.Context, adminID uuid.UUID) ([]*models.ChatSummary, error)
}

type PostgresChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) ChatRepository {
	return &PostgresChatRepo{
		pool: pool,
	}
}

const chatColumns = `id, kind, user_id, shelter_id, shelter_admin_id, user1_id, user2_id, created_at, updated_at`

func (r *PostgresChatRepo) GetOrCreate(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	switch chat.Kind {
	case models.KindUserShelter:
		p := chat.ShelterParties
		if p == nil {
			return nil, errors.New("user-shelter chat without participants")
		}

		// The insert loses the race on conflict and the follow-up select
		// picks up whichever row won. Either way the caller gets the one
		// chat for this (user, shelterAdmin) pair.
		const insert = `
			INSERT INTO chats (id, kind, user_id, shelter_id, shelter_admin_id)
			VALUES ($1, 'user-shelter', $2, $3, $4)
			ON CONFLICT (user_id, shelter_admin_id) WHERE kind = 'user-shelter' DO NOTHING`

		if _, err := r.pool.Exec(ctx, insert, chat.ID, p.UserID, p.ShelterID, p.ShelterAdminID); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}

		const query = `
			SELECT ` + chatColumns + `
			FROM chats
			WHERE kind = 'user-shelter' AND user_id = $1 AND shelter_admin_id = $2`
		return scanChat(r.pool.QueryRow(ctx, query, p.UserID, p.ShelterAdminID))

	case models.KindUserUser:
		p := chat.DirectParties
		if p == nil {
			return nil, errors.New("user-user chat without participants")
		}

		const insert = `
			INSERT INTO chats (id, kind, user1_id, user2_id)
			VALUES ($1, 'user-user', $2, $3)
			ON CONFLICT (LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id)) WHERE kind = 'user-user' DO NOTHING`

		if _, err := r.pool.Exec(ctx, insert, chat.ID, p.User1ID, p.User2ID); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}

		// The pair is unordered: either column ordering matches.
		const query = `
			SELECT ` + chatColumns + `
			FROM chats
			WHERE kind = 'user-user'
			  AND ((user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1))`
		return scanChat(r.pool.QueryRow(ctx, query, p.User1ID, p.User2ID))
	}

	return nil, fmt.Errorf("unknown chat kind %q", chat.Kind)
}

func (r *PostgresChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	const query = `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	return scanChat(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresChatRepo) AppendMessage(ctx context.Context, chatID, senderID uuid.UUID, text string) (*models.Message, error) {
	const query = `
		INSERT INTO messages (id, chat_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	m := &models.Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: senderID,
		Text:     text,
	}

	err := r.pool.QueryRow(ctx, query, m.ID, m.ChatID, m.SenderID, m.Text).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// FK violation: the chat does not exist.
			return nil, fmt.Errorf("chat %s: %w", chatID, pgx.ErrNoRows)
		}
		log.Printf("[REPO ERROR] Failed to append message to chat %s: %v", chatID, err)
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return m, nil
}

func (r *PostgresChatRepo) GetMessages(ctx context.Context, chatID uuid.UUID) ([]*models.Message, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1)`, chatID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check chat: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("chat %s: %w", chatID, pgx.ErrNoRows)
	}

	// seq is assigned on insert, so this order is append order — the same
	// order live subscribers observed.
	const query = `
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (r *PostgresChatRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSummary, error) {
	// A caller can sit in any of the four participant slots.
	const query = `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE user_id = $1 OR shelter_admin_id = $1 OR user1_id = $1 OR user2_id = $1
		ORDER BY updated_at DESC`

	return r.listChats(ctx, query, userID)
}

func (r *PostgresChatRepo) ListForShelterAdmin(ctx context.Context, adminID uuid.UUID) ([]*models.ChatSummary, error) {
	const query = `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE kind = 'user-shelter' AND shelter_admin_id = $1
		ORDER BY updated_at DESC`

	return r.listChats(ctx, query, adminID)
}

func (r *PostgresChatRepo) listChats(ctx context.Context, query string, id uuid.UUID) ([]*models.ChatSummary, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*models.ChatSummary, 0)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, &models.ChatSummary{
			ID:             chat.ID,
			Kind:           chat.Kind,
			ShelterParties: chat.ShelterParties,
			DirectParties:  chat.DirectParties,
			CreatedAt:      chat.CreatedAt,
			UpdatedAt:      chat.UpdatedAt,
		})
	}

	return chats, rows.Err()
}

// scanChat maps the nullable per-kind columns onto the tagged Chat variant:
// only the payload selected by kind is populated.
func scanChat(row pgx.Row) (*models.Chat, error) {
	var (
		c                                            models.Chat
		userID, shelterID, adminID, user1ID, user2ID uuid.NullUUID
	)

	err := row.Scan(&c.ID, &c.Kind, &userID, &shelterID, &adminID, &user1ID, &user2ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat: %w", pgx.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to scan chat: %w", err)
	}

	switch c.Kind {
	case models.KindUserShelter:
		c.ShelterParties = &models.ShelterParties{
			UserID:         userID.UUID,
			ShelterAdminID: adminID.UUID,
			ShelterID:      shelterID.UUID,
		}
	case models.KindUserUser:
		c.DirectParties = &models.DirectParties{
			User1ID: user1ID.UUID,
			User2ID: user2ID.UUID,
		}
	}

	return &c, nil
}
