package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"pixelgram/internal/models"
)

const maxMessageLen = 1000

// pairKey canonicalizes two participant ids so the unordered pair maps to
// exactly one conversation row.
func pairKey(x, y int64) (int64, int64) {
	if x < y {
		return x, y
	}
	return y, x
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender, _ := h.sessions.CurrentUserID(r)
	receiver, err := strconv.ParseInt(r.PathValue("receiverId"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid receiver id")
		return
	}

	var req struct {
		TextMessage string `json:"textMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body := strings.TrimSpace(req.TextMessage)
	if body == "" {
		h.fail(w, http.StatusBadRequest, "Message text is required")
		return
	}
	if utf8.RuneCountInString(body) > maxMessageLen {
		h.fail(w, http.StatusBadRequest, "Message must not exceed 1000 characters")
		return
	}

	var exists int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, receiver).Scan(&exists); err != nil || exists == 0 {
		h.fail(w, http.StatusNotFound, "Receiver not found")
		return
	}

	// Conversation find-or-create and message insert commit together, so a
	// message can never exist outside its conversation.
	tx, err := h.db.Begin()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	defer tx.Rollback()

	a, b := pairKey(sender, receiver)
	var convID int64
	err = tx.QueryRow(`SELECT id FROM conversations WHERE user_a = ? AND user_b = ?`, a, b).Scan(&convID)
	if errors.Is(err, sql.ErrNoRows) {
		res, ierr := tx.Exec(`INSERT INTO conversations(user_a,user_b,created_at) VALUES(?,?,?)`,
			a, b, time.Now())
		if ierr != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to send message")
			return
		}
		convID, _ = res.LastInsertId()
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	now := time.Now()
	res, err := tx.Exec(`INSERT INTO messages(conversation_id,sender_id,receiver_id,body,created_at)
		VALUES(?,?,?,?,?)`, convID, sender, receiver, body, now)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	msgID, _ := res.LastInsertId()

	if err := tx.Commit(); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	msg := models.Message{
		ID:             msgID,
		ConversationID: convID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Body:           body,
		CreatedAt:      now,
	}

	// Push to the receiver if they have a live connection; otherwise the
	// message waits for the next history fetch.
	h.push.Push(receiver, map[string]any{"type": "newMessage", "message": msg})

	h.ok(w, http.StatusCreated, "Message sent successfully", map[string]any{"newMessage": msg})
}

// GetMessages returns the full history between the caller and the other
// user, oldest first. No conversation yet means an empty list, not an error.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	other, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	a, b := pairKey(uid, other)
	var convID int64
	err = h.db.QueryRow(`SELECT id FROM conversations WHERE user_a = ? AND user_b = ?`, a, b).Scan(&convID)
	if errors.Is(err, sql.ErrNoRows) {
		h.ok(w, http.StatusOK, "", map[string]any{"messages": []models.Message{}})
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	rows, err := h.db.Query(`SELECT id, conversation_id, sender_id, receiver_id, body, is_read, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`, convID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to get messages")
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}
	h.ok(w, http.StatusOK, "", map[string]any{"messages": messages})
}
