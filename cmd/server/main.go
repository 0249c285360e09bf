package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/api"
	"github.com/Safyd-Zey/backend-shelter/internal/chat"
	"github.com/Safyd-Zey/backend-shelter/internal/config"
	"github.com/Safyd-Zey/backend-shelter/internal/db"
	"github.com/Safyd-Zey/backend-shelter/internal/metrics"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer pool.Close()

	users := repository.NewUserRepo(pool)
	shelters := repository.NewShelterRepo(pool)
	chats := repository.NewChatRepo(pool)

	resolver := chat.NewResolver(users, shelters, chats)

	h := chat.NewHub()
	go h.Run()

	authenticate := middleware.Authenticate(users)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", api.RegisterHandler(users))
	mux.HandleFunc("POST /api/auth/login", api.LoginHandler(users))

	mux.Handle("POST /api/chats", authenticate(api.CreateChatHandler(resolver, chats)))
	mux.Handle("GET /api/chats/user", authenticate(api.GetUserChatsHandler(chats)))
	mux.Handle("GET /api/chats/{chatId}/messages", authenticate(api.GetChatMessagesHandler(chats)))
	mux.Handle("GET /api/chats/shelter/{shelterId}", authenticate(api.GetShelterChatsHandler(shelters, chats)))

	mux.Handle("GET /ws", authenticate(api.ServeWS(h, chats)))

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Shelter backend starting on :%s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	log.Println("Shutdown signal received. Cleaning up...")
	close(h.Quit)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Graceful shutdown complete.")
}
