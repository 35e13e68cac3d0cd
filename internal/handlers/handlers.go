package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"pixelgram/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

// Pusher delivers a realtime event to a single user if they are connected.
// Satisfied by *realtime.Hub; injectable so delivery logic is testable
// without a live socket.
type Pusher interface {
	Push(userID int64, event any)
}

type Handler struct {
	db        *sql.DB
	sessions  *auth.Manager
	push      Pusher
	uploadDir string
}

func New(db *sql.DB, sessions *auth.Manager, push Pusher, uploadDir string) *Handler {
	return &Handler{db: db, sessions: sessions, push: push, uploadDir: uploadDir}
}

// --- JSON envelope helpers ---

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) ok(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// --- password helpers (bcrypt) ---

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
