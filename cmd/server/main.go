package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"pixelgram/internal/auth"
	"pixelgram/internal/config"
	"pixelgram/internal/db"
	"pixelgram/internal/handlers"
	"pixelgram/internal/realtime"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		log.Fatal(err)
	}

	dbc, err := db.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer dbc.Close()

	if err := db.Migrate(dbc); err != nil {
		log.Fatal(err)
	}

	sessions := auth.NewManager(dbc, cfg.SessionTTL())

	hub := realtime.NewHub()
	go hub.Run()

	h := handlers.New(dbc, sessions, hub, cfg.Storage.UploadDir)

	mux := http.NewServeMux()

	// uploaded images
	fs := http.FileServer(http.Dir(cfg.Storage.UploadDir))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", fs))

	// users
	mux.HandleFunc("POST /api/v1/users/register", h.Register)
	mux.HandleFunc("POST /api/v1/users/login", h.Login)
	mux.HandleFunc("POST /api/v1/users/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/users/suggestions", h.RequireAuth(h.Suggestions))
	mux.HandleFunc("GET /api/v1/users/profile/{id}", h.RequireAuth(h.Profile))
	mux.HandleFunc("PUT /api/v1/users/profile", h.RequireAuth(h.EditProfile))
	mux.HandleFunc("PATCH /api/v1/users/{id}/follow", h.RequireAuth(h.ToggleFollow))

	// posts
	mux.HandleFunc("POST /api/v1/posts", h.RequireAuth(h.CreatePost))
	mux.HandleFunc("GET /api/v1/posts", h.Feed)
	mux.HandleFunc("GET /api/v1/posts/user", h.RequireAuth(h.UserPosts))
	mux.HandleFunc("PATCH /api/v1/posts/{id}/like", h.RequireAuth(h.ToggleLike))
	mux.HandleFunc("POST /api/v1/posts/{id}/comments", h.RequireAuth(h.AddComment))
	mux.HandleFunc("GET /api/v1/posts/{id}/comments", h.GetComments)
	mux.HandleFunc("DELETE /api/v1/posts/{id}", h.RequireAuth(h.DeletePost))
	mux.HandleFunc("PATCH /api/v1/posts/{id}/bookmark", h.RequireAuth(h.ToggleBookmark))

	// messages
	mux.HandleFunc("POST /api/v1/messages/send/{receiverId}", h.RequireAuth(h.SendMessage))
	mux.HandleFunc("GET /api/v1/messages/all/{userId}", h.RequireAuth(h.GetMessages))

	// realtime channel
	mux.HandleFunc("GET /api/v1/ws", h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := sessions.CurrentUserID(r)
		hub.ServeWS(w, r, uid)
	}))

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, handlers.WithRecover(mux)); err != nil {
		log.Fatal(err)
	}
}
