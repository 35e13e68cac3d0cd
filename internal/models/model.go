package models

import "time"

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender"`
	Followers      []int64   `json:"followers"`
	Following      []int64   `json:"following"`
	Posts          []Post    `json:"posts,omitempty"`
	Bookmarks      []Post    `json:"bookmarks,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Author    Author    `json:"author"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image"`
	Likes     []int64   `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// Author is the denormalized user slice embedded in posts and comments.
type Author struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	AuthorID  int64     `json:"authorId"`
	Author    Author    `json:"author"`
	Content   string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Conversation struct {
	ID        int64     `json:"id"`
	UserA     int64     `json:"-"`
	UserB     int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	ReceiverID     int64     `json:"receiverId"`
	Body           string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Notification is pushed over the realtime channel when someone likes a post.
type Notification struct {
	Type        string `json:"type"`
	UserID      int64  `json:"userId"`
	UserDetails Author `json:"userDetails"`
	PostID      int64  `json:"postId"`
	Message     string `json:"message"`
}
