package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/Safyd-Zey/backend-shelter/internal/models"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResolveRequest is the body of POST /api/chats. ChatType selects which of
// the id fields is required.
type ResolveRequest struct {
	ChatType   models.ChatKind `json:"chatType"`
	UserID     string          `json:"userId,omitempty"`
	ShelterID  string          `json:"shelterId,omitempty"`
	OpponentID string          `json:"opponentId,omitempty"`
}

// Resolver turns a caller identity plus a requested counterparty into the
// canonical participant pair for a chat, then hands the pair to the store's
// idempotent get-or-create. All lookups happen before any mutation: an
// unresolvable user or shelter never leaves a half-created chat behind.
type Resolver struct {
	users    repository.UserRepository
	shelters repository.ShelterRepository
	chats    repository.ChatRepository
}

func NewResolver(users repository.UserRepository, shelters repository.ShelterRepository, chats repository.ChatRepository) *Resolver {
	return &Resolver{
		users:    users,
		shelters: shelters,
		chats:    chats,
	}
}

func (r *Resolver) Resolve(ctx context.Context, caller models.Identity, req ResolveRequest) (*models.Chat, error) {
	switch req.ChatType {
	case models.KindUserShelter:
		parties, err := r.resolveShelterChat(ctx, caller, req)
		if err != nil {
			return nil, err
		}
		return r.chats.GetOrCreate(ctx, &models.Chat{
			ID:             uuid.New(),
			Kind:           models.KindUserShelter,
			ShelterParties: parties,
		})

	case models.KindUserUser:
		parties, err := r.resolveDirectChat(ctx, caller, req)
		if err != nil {
			return nil, err
		}
		return r.chats.GetOrCreate(ctx, &models.Chat{
			ID:            uuid.New(),
			Kind:          models.KindUserUser,
			DirectParties: parties,
		})
	}

	return nil, fmt.Errorf("unknown chat type %q: %w", req.ChatType, ErrInvalidRequest)
}

func (r *Resolver) resolveShelterChat(ctx context.Context, caller models.Identity, req ResolveRequest) (*models.ShelterParties, error) {
	if caller.Role == models.RoleShelterAdmin {
		// The admin opens a chat with a member; the shelter is their own.
		if req.UserID == "" {
			return nil, fmt.Errorf("userId is required for a shelter admin: %w", ErrInvalidRequest)
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, fmt.Errorf("malformed userId: %w", ErrInvalidRequest)
		}

		if _, err := r.users.GetUserByID(ctx, userID); err != nil {
			return nil, notFound("user", err)
		}

		shelter, err := r.shelters.GetShelterByAdmin(ctx, caller.ID)
		if err != nil {
			return nil, notFound("shelter", err)
		}

		return &models.ShelterParties{
			UserID:         userID,
			ShelterAdminID: caller.ID,
			ShelterID:      shelter.ID,
		}, nil
	}

	// An ordinary member opens a chat with a shelter; the counterpart is
	// whoever administers it.
	if req.ShelterID == "" {
		return nil, fmt.Errorf("shelterId is required: %w", ErrInvalidRequest)
	}
	shelterID, err := uuid.Parse(req.ShelterID)
	if err != nil {
		return nil, fmt.Errorf("malformed shelterId: %w", ErrInvalidRequest)
	}

	shelter, err := r.shelters.GetShelterByID(ctx, shelterID)
	if err != nil {
		return nil, notFound("shelter", err)
	}

	admin, err := r.users.GetUserByID(ctx, shelter.AdminID)
	if err != nil {
		return nil, notFound("shelter admin", err)
	}

	return &models.ShelterParties{
		UserID:         caller.ID,
		ShelterAdminID: admin.ID,
		ShelterID:      shelter.ID,
	}, nil
}

func (r *Resolver) resolveDirectChat(ctx context.Context, caller models.Identity, req ResolveRequest) (*models.DirectParties, error) {
	if req.OpponentID == "" {
		return nil, fmt.Errorf("opponentId is required: %w", ErrInvalidRequest)
	}
	opponentID, err := uuid.Parse(req.OpponentID)
	if err != nil {
		return nil, fmt.Errorf("malformed opponentId: %w", ErrInvalidRequest)
	}

	if _, err := r.users.GetUserByID(ctx, opponentID); err != nil {
		return nil, notFound("user", err)
	}

	return &models.DirectParties{
		User1ID: caller.ID,
		User2ID: opponentID,
	}, nil
}

// notFound translates a repository no-rows error into the subsystem's
// NotFound, naming the entity that was missing. Other errors pass through
// untouched and surface as internal.
func notFound(entity string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}
