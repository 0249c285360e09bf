package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Safyd-Zey/backend-shelter/internal/auth"
	"github.com/Safyd-Zey/backend-shelter/internal/models"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func RegisterHandler(users repository.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload RegisterRequest

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		payload.Name = strings.TrimSpace(payload.Name)
		payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))

		if payload.Name == "" || payload.Email == "" || payload.Password == "" {
			http.Error(w, "All fields (name, email, password) are required", http.StatusBadRequest)
			return
		}

		if !isValidEmail(payload.Email) {
			http.Error(w, "Invalid email format", http.StatusBadRequest)
			return
		}

		if len(payload.Password) < 8 {
			http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		existing, err := users.GetUserByEmail(dbctx, payload.Email)
		if err == nil && existing != nil {
			http.Error(w, "Email already exists", http.StatusConflict)
			return
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[SIGNUP] DB lookup error for %s: %v", payload.Email, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		hashed, err := auth.HashPassword(payload.Password)
		if err != nil {
			log.Printf("[SIGNUP] Hashing error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		user := &models.User{
			ID:           uuid.New(),
			Name:         payload.Name,
			Email:        payload.Email,
			PasswordHash: hashed,
			Phone:        payload.Phone,
			City:         payload.City,
			Role:         models.RoleUser,
		}

		if err := users.CreateUser(dbctx, user); err != nil {
			log.Printf("[SIGNUP] DB create error for %s: %v", payload.Email, err)
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}

		token, err := auth.GenerateToken(user.ID, user.Role)
		if err != nil {
			log.Printf("[SIGNUP] Token generation failed: %v", err)
			http.Error(w, "User created, but failed to start session. Please login.", http.StatusCreated)
			return
		}

		log.Printf("[SIGNUP] New user created: %s", user.Email)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
	}
}

func LoginHandler(users repository.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload LoginRequest

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
		if payload.Email == "" || payload.Password == "" {
			http.Error(w, "Email and password are required", http.StatusBadRequest)
			return
		}

		user, err := users.GetUserByEmail(dbctx, payload.Email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, "Invalid email or password", http.StatusUnauthorized)
				return
			}
			log.Printf("[LOGIN] Database error for %s: %v", payload.Email, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !auth.VerifyPassword(payload.Password, user.PasswordHash) {
			log.Printf("[LOGIN] Invalid password for user: %s", payload.Email)
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}

		token, err := auth.GenerateToken(user.ID, user.Role)
		if err != nil {
			log.Printf("[LOGIN] Token generation failed for %s: %v", user.ID, err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		log.Printf("[LOGIN] User %s logged in", user.Email)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
	}
}
