package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestSendMessageCreatesOneConversation(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")
	cookie := app.sessionCookie(t, alice)

	path := fmt.Sprintf("/api/v1/messages/send/%d", bob)

	rr := app.do(t, http.MethodPost, path, map[string]string{"textMessage": "hey"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM conversations`); n != 1 {
		t.Fatalf("conversations = %d, want 1", n)
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM messages`); n != 1 {
		t.Fatalf("messages = %d, want 1", n)
	}

	// second message reuses the conversation
	rr = app.do(t, http.MethodPost, path, map[string]string{"textMessage": "you there?"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("second send: got %d, want 201", rr.Code)
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM conversations`); n != 1 {
		t.Fatalf("conversations = %d, want 1 after second send", n)
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM messages`); n != 2 {
		t.Fatalf("messages = %d, want 2", n)
	}
}

func TestReplyLandsInSameConversation(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")

	rr := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", bob),
		map[string]string{"textMessage": "hi bob"}, app.sessionCookie(t, alice))
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201", rr.Code)
	}
	rr = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", alice),
		map[string]string{"textMessage": "hi alice"}, app.sessionCookie(t, bob))
	if rr.Code != http.StatusCreated {
		t.Fatalf("reply: got %d, want 201", rr.Code)
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM conversations`); n != 1 {
		t.Fatalf("conversations = %d, want 1 for the pair", n)
	}
}

func TestSendMessageValidation(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")
	cookie := app.sessionCookie(t, alice)

	// empty body rejected before any persistence
	rr := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", bob),
		map[string]string{"textMessage": "  "}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty text: got %d, want 400", rr.Code)
	}

	// over the 1000-char cap
	rr = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", bob),
		map[string]string{"textMessage": strings.Repeat("x", 1001)}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("long text: got %d, want 400", rr.Code)
	}

	// unknown receiver
	rr = app.do(t, http.MethodPost, "/api/v1/messages/send/9999",
		map[string]string{"textMessage": "hello?"}, cookie)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver: got %d, want 404", rr.Code)
	}

	if n := app.countRows(t, `SELECT COUNT(*) FROM conversations`); n != 0 {
		t.Fatalf("conversations = %d, want 0 after rejected sends", n)
	}
	if n := app.countRows(t, `SELECT COUNT(*) FROM messages`); n != 0 {
		t.Fatalf("messages = %d, want 0 after rejected sends", n)
	}
}

func TestHistoryForUnknownPairIsEmpty(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")

	rr := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/all/%d", bob), nil, app.sessionCookie(t, alice))
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	msgs, ok := body["messages"].([]any)
	if !ok || len(msgs) != 0 {
		t.Fatalf("messages = %v, want empty list", body["messages"])
	}
}

func TestHistoryAscendingByCreationTime(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")

	res, err := app.db.Exec(`INSERT INTO conversations(user_a,user_b,created_at) VALUES(?,?,?)`,
		alice, bob, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	convID, _ := res.LastInsertId()

	// insert out of order on purpose
	base := time.Now().Add(-time.Hour)
	for _, m := range []struct {
		body   string
		offset time.Duration
	}{
		{"third", 30 * time.Minute},
		{"first", 0},
		{"second", 15 * time.Minute},
	} {
		if _, err := app.db.Exec(`INSERT INTO messages(conversation_id,sender_id,receiver_id,body,created_at)
			VALUES(?,?,?,?,?)`, convID, alice, bob, m.body, base.Add(m.offset)); err != nil {
			t.Fatal(err)
		}
	}

	rr := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/all/%d", alice), nil, app.sessionCookie(t, bob))
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	msgs := decodeBody(t, rr)["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	var prev time.Time
	for i, raw := range msgs {
		m := raw.(map[string]any)
		ts, err := time.Parse(time.RFC3339Nano, m["createdAt"].(string))
		if err != nil {
			t.Fatalf("message %d createdAt: %v", i, err)
		}
		if ts.Before(prev) {
			t.Fatalf("history out of order at index %d", i)
		}
		prev = ts
	}
	if msgs[0].(map[string]any)["message"] != "first" {
		t.Fatalf("oldest message = %v, want first", msgs[0])
	}
}

// The spec scenario: alice sends "hi" to a disconnected bob; the send still
// succeeds and bob sees the message on the next history fetch.
func TestOfflineReceiverReadsViaHistory(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")

	rr := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", bob),
		map[string]string{"textMessage": "hi"}, app.sessionCookie(t, alice))
	if rr.Code != http.StatusCreated {
		t.Fatalf("send: got %d, want 201", rr.Code)
	}
	sent := decodeBody(t, rr)["newMessage"].(map[string]any)
	if sent["message"] != "hi" {
		t.Fatalf("newMessage.message = %v", sent["message"])
	}

	rr = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/all/%d", alice), nil, app.sessionCookie(t, bob))
	if rr.Code != http.StatusOK {
		t.Fatalf("history: got %d, want 200", rr.Code)
	}
	msgs := decodeBody(t, rr)["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0].(map[string]any)
	if m["message"] != "hi" || int64(m["senderId"].(float64)) != alice || int64(m["receiverId"].(float64)) != bob {
		t.Fatalf("unexpected message: %v", m)
	}
	if m["isRead"] != false {
		t.Fatalf("isRead = %v, want false", m["isRead"])
	}
}

func TestSendMessagePushesToReceiver(t *testing.T) {
	app := newTestApp(t)
	alice := app.createUser(t, "alice")
	bob := app.createUser(t, "bob")

	app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/send/%d", bob),
		map[string]string{"textMessage": "ping"}, app.sessionCookie(t, alice))

	if n := app.push.count(); n != 1 {
		t.Fatalf("pushes = %d, want 1", n)
	}
	if app.push.events[0].userID != bob {
		t.Fatalf("push went to %d, want %d", app.push.events[0].userID, bob)
	}
	event := app.push.events[0].event.(map[string]any)
	if event["type"] != "newMessage" {
		t.Fatalf("event type = %v, want newMessage", event["type"])
	}
}
