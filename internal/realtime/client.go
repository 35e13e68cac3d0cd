// The read goroutine exists only to detect disconnects: the channel is
// push-only, clients never send application frames. The write goroutine
// drains the send channel so a slow socket never blocks the hub loop.
package realtime

import "github.com/gorilla/websocket"

// Client is a single registered websocket connection.
type Client struct {
	id     string
	userID int64
	hub    *Hub
	socket *websocket.Conn
	send   chan []byte
}

func (c *Client) read() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) write() {
	defer c.socket.Close()

	for message := range c.send {
		c.socket.WriteMessage(websocket.TextMessage, message)
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
