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

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	caption := strings.TrimSpace(r.FormValue("caption"))

	file, _, err := r.FormFile("image")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	imageURL, err := h.saveUpload(file)
	if errors.Is(err, errNotImage) {
		h.fail(w, http.StatusBadRequest, "Unsupported image type")
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	res, err := h.db.Exec(`INSERT INTO posts(user_id,caption,image_url,created_at) VALUES(?,?,?,?)`,
		uid, caption, imageURL, time.Now())
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	pid, _ := res.LastInsertId()

	post, err := h.loadPost(pid)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	h.ok(w, http.StatusCreated, "Post created successfully", map[string]any{"post": post})
}

// Feed is the public timeline, newest first.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.loadPosts("")
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	h.ok(w, http.StatusOK, "", map[string]any{"posts": posts})
}

func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	posts, err := h.loadPosts(`p.user_id = ?`, uid)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	h.ok(w, http.StatusOK, "", map[string]any{"posts": posts})
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	pid, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var authorID int64
	err = h.db.QueryRow(`SELECT user_id FROM posts WHERE id = ?`, pid).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		h.fail(w, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update like")
		return
	}

	var liked int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND user_id = ?`,
		pid, uid).Scan(&liked); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update like")
		return
	}

	if liked > 0 {
		if _, err := h.db.Exec(`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, pid, uid); err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to update like")
			return
		}
		h.ok(w, http.StatusOK, "Post unliked", nil)
		return
	}

	if _, err := h.db.Exec(`INSERT INTO post_likes(post_id,user_id,created_at) VALUES(?,?,?)`,
		pid, uid, time.Now()); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update like")
		return
	}

	// Notify the author, once, on the like transition only. Self-likes are
	// silent.
	if authorID != uid {
		var liker models.Author
		if err := h.db.QueryRow(`SELECT id, username, profile_picture FROM users WHERE id = ?`, uid).
			Scan(&liker.ID, &liker.Username, &liker.ProfilePicture); err == nil {
			h.push.Push(authorID, map[string]any{
				"type": "notification",
				"notification": models.Notification{
					Type:        "like",
					UserID:      uid,
					UserDetails: liker,
					PostID:      pid,
					Message:     "Your post was liked",
				},
			})
		}
	}
	h.ok(w, http.StatusOK, "Post liked", nil)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	pid, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.fail(w, http.StatusBadRequest, "Comment text is required")
		return
	}

	var exists int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, pid).Scan(&exists); err != nil || exists == 0 {
		h.fail(w, http.StatusNotFound, "Post not found")
		return
	}

	res, err := h.db.Exec(`INSERT INTO comments(post_id,user_id,content,created_at) VALUES(?,?,?,?)`,
		pid, uid, text, time.Now())
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	cid, _ := res.LastInsertId()

	var c models.Comment
	err = h.db.QueryRow(`SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		u.id, u.username, u.profile_picture
		FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = ?`, cid).
		Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	h.ok(w, http.StatusCreated, "Comment added", map[string]any{"comment": c})
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid post id")
		return
	}
	comments, err := h.loadComments(pid)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}
	h.ok(w, http.StatusOK, "", map[string]any{"comments": comments})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	pid, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var authorID int64
	err = h.db.QueryRow(`SELECT user_id FROM posts WHERE id = ?`, pid).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		h.fail(w, http.StatusNotFound, "Post not found")
		return
	} else if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	if authorID != uid {
		h.fail(w, http.StatusForbidden, "Unauthorized to delete this post")
		return
	}

	// Cascade in one transaction: comments, likes, and bookmark references go
	// with the post.
	tx, err := h.db.Begin()
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM comments WHERE post_id = ?`,
		`DELETE FROM post_likes WHERE post_id = ?`,
		`DELETE FROM bookmarks WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, pid); err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to delete post")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	h.ok(w, http.StatusOK, "Post deleted", nil)
}

func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	uid, _ := h.sessions.CurrentUserID(r)
	pid, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var exists int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, pid).Scan(&exists); err != nil || exists == 0 {
		h.fail(w, http.StatusNotFound, "Post not found")
		return
	}

	var saved int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM bookmarks WHERE user_id = ? AND post_id = ?`,
		uid, pid).Scan(&saved); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update bookmark")
		return
	}

	if saved > 0 {
		if _, err := h.db.Exec(`DELETE FROM bookmarks WHERE user_id = ? AND post_id = ?`, uid, pid); err != nil {
			h.fail(w, http.StatusInternalServerError, "Failed to update bookmark")
			return
		}
		h.ok(w, http.StatusOK, "Bookmark removed", map[string]any{"type": "unsaved"})
		return
	}
	if _, err := h.db.Exec(`INSERT INTO bookmarks(user_id,post_id,created_at) VALUES(?,?,?)`,
		uid, pid, time.Now()); err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to update bookmark")
		return
	}
	h.ok(w, http.StatusOK, "Post bookmarked", map[string]any{"type": "saved"})
}

// --- shared loaders ---

func (h *Handler) loadPost(id int64) (*models.Post, error) {
	posts, err := h.loadPosts(`p.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, sql.ErrNoRows
	}
	return &posts[0], nil
}

// loadPosts returns posts matching the optional WHERE clause, newest first,
// with author, liker list, and comments populated.
func (h *Handler) loadPosts(where string, args ...any) ([]models.Post, error) {
	q := `SELECT p.id, p.user_id, p.caption, p.image_url, p.created_at,
		u.id, u.username, u.profile_picture
		FROM posts p JOIN users u ON p.user_id = u.id`
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY p.created_at DESC, p.id DESC"

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Caption, &p.ImageURL, &p.CreatedAt,
			&p.Author.ID, &p.Author.Username, &p.Author.ProfilePicture); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if posts[i].Likes, err = h.idList(`SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY created_at`,
			posts[i].ID); err != nil {
			return nil, err
		}
		if posts[i].Comments, err = h.loadComments(posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// loadComments returns a post's comments newest first with populated authors.
func (h *Handler) loadComments(postID int64) ([]models.Comment, error) {
	rows, err := h.db.Query(`SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		u.id, u.username, u.profile_picture
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ? ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Username, &c.Author.ProfilePicture); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
