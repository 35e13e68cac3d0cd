package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pixelgram/internal/models"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		h.fail(w, http.StatusBadRequest, "All fields are required")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	_, err = h.db.Exec(`INSERT INTO users(email,username,password_hash,created_at) VALUES(?,?,?,?)`,
		email, username, hash, time.Now())
	if err != nil {
		h.fail(w, http.StatusConflict, "Email or username already taken")
		return
	}
	h.ok(w, http.StatusCreated, "Account created successfully", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.fail(w, http.StatusBadRequest, "All fields are required")
		return
	}

	var id int64
	var hash string
	err := h.db.QueryRow(`SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		h.fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if !CheckPassword(req.Password, hash) {
		h.fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// One active session per user.
	_, _ = h.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, id)
	if err := h.sessions.Create(w, id); err != nil {
		h.fail(w, http.StatusInternalServerError, "Login failed")
		return
	}

	user, err := h.loadUser(id)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user.Posts, err = h.loadPosts(`p.user_id = ?`, id); err != nil {
		h.fail(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.ok(w, http.StatusOK, "Welcome back "+user.Username, map[string]any{"user": user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	h.ok(w, http.StatusOK, "Logged out successfully", nil)
}

// Suggestions lists every user except the caller.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)

	ids, err := h.idList(`SELECT id FROM users WHERE id != ? ORDER BY created_at DESC`, uid)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load suggestions")
		return
	}
	users := []*models.User{}
	for _, id := range ids {
		u, err := h.loadUser(id)
		if err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to load suggestions")
			return
		}
		users = append(users, u)
	}
	h.ok(w, http.StatusOK, "", map[string]any{"users": users})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.loadUser(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.fail(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	if user.Posts, err = h.loadPosts(`p.user_id = ?`, id); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	user.Bookmarks, err = h.loadPosts(`p.id IN (SELECT post_id FROM bookmarks WHERE user_id = ?)`, id)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	h.ok(w, http.StatusOK, "", map[string]any{"user": user})
}

func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	bio := strings.TrimSpace(r.FormValue("bio"))
	gender := strings.TrimSpace(r.FormValue("gender"))
	if gender != "" && gender != "male" && gender != "female" {
		h.fail(w, http.StatusBadRequest, "Gender must be either male or female")
		return
	}

	picture := ""
	if file, _, err := r.FormFile("profilePicture"); err == nil {
		defer file.Close()
		picture, err = h.saveUpload(file)
		if errors.Is(err, errNotImage) {
			h.fail(w, http.StatusBadRequest, "Unsupported image type")
			return
		} else if err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to store image")
			return
		}
	}

	// Only provided fields are touched.
	sets := []string{}
	args := []any{}
	if bio != "" {
		sets = append(sets, "bio = ?")
		args = append(args, bio)
	}
	if gender != "" {
		sets = append(sets, "gender = ?")
		args = append(args, gender)
	}
	if picture != "" {
		sets = append(sets, "profile_picture = ?")
		args = append(args, picture)
	}
	if len(sets) > 0 {
		args = append(args, uid)
		if _, err := h.db.Exec(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}

	user, err := h.loadUser(uid)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.ok(w, http.StatusOK, "Profile updated", map[string]any{"user": user})
}

func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	target, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if target == uid {
		h.fail(w, http.StatusBadRequest, "You can't follow/unfollow yourself")
		return
	}

	var exists int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, target).Scan(&exists); err != nil || exists == 0 {
		h.fail(w, http.StatusNotFound, "User not found")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update follow state")
		return
	}
	defer tx.Rollback()

	var following int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`,
		uid, target).Scan(&following); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update follow state")
		return
	}
	msg := "Followed successfully"
	if following > 0 {
		_, err = tx.Exec(`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, uid, target)
		msg = "Unfollowed successfully"
	} else {
		_, err = tx.Exec(`INSERT INTO follows(follower_id,followee_id,created_at) VALUES(?,?,?)`,
			uid, target, time.Now())
	}
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update follow state")
		return
	}
	h.ok(w, http.StatusOK, msg, nil)
}

// --- shared loaders ---

func (h *Handler) loadUser(id int64) (*models.User, error) {
	u := &models.User{}
	err := h.db.QueryRow(`SELECT id, email, username, profile_picture, bio, gender, created_at
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Username, &u.ProfilePicture, &u.Bio, &u.Gender, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if u.Followers, err = h.idList(`SELECT follower_id FROM follows WHERE followee_id = ?`, id); err != nil {
		return nil, err
	}
	if u.Following, err = h.idList(`SELECT followee_id FROM follows WHERE follower_id = ?`, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (h *Handler) idList(q string, args ...any) ([]int64, error) {
	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
