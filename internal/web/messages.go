package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/projectyui/yui/pkg/personality"
)

// wireMessage is the JSON envelope exchanged with browser clients.
type wireMessage struct {
	Type        string `json:"type"` // user, assistant, system, typing, tool, error
	Content     string `json:"content"`
	Personality string `json:"personality,omitempty"`
	Timestamp   string `json:"timestamp"`
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// send writes one message to the client. Writes are serialized because
// gorilla connections allow a single concurrent writer.
func (c *client) send(msg wireMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = now()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.WriteJSON(msg)
}

// handleCommand executes one slash command and reports whether the
// connection was closed.
func (s *Server) handleCommand(c *client, command string) bool {
	fields := strings.Fields(strings.ToLower(command))

	switch fields[0] {
	case "/quit", "/exit":
		c.send(wireMessage{Type: "system", Content: "Goodbye! 👋"})
		c.conn.Close()
		return true

	case "/clear":
		c.conversation.ClearHistory()
		c.send(wireMessage{Type: "system", Content: "🗑 Conversation history cleared"})

	case "/switch":
		if len(fields) < 2 {
			c.send(wireMessage{
				Type:    "system",
				Content: fmt.Sprintf("Usage: /switch <personality>\nAvailable: %s", strings.Join(personality.Names(), ", ")),
			})
			return false
		}
		if err := c.conversation.SwitchPersonality(fields[1]); err != nil {
			c.send(wireMessage{Type: "error", Content: fmt.Sprintf("Error switching personality: %v", err)})
			return false
		}
		c.send(wireMessage{
			Type:    "system",
			Content: fmt.Sprintf("✨ Switched to %s personality", c.conversation.Persona().Name),
		})

	case "/info":
		c.send(wireMessage{Type: "system", Content: c.conversation.Summary()})

	case "/stats":
		stats, err := c.conversation.Memory().GetUserStats()
		if err != nil {
			c.send(wireMessage{Type: "error", Content: fmt.Sprintf("Error fetching stats: %v", err)})
			return false
		}
		favorite := stats.FavoritePersonality
		if favorite == "" {
			favorite = "none yet"
		}
		c.send(wireMessage{Type: "system", Content: fmt.Sprintf(
			"📊 Your stats:\n- Messages: %d\n- Sessions: %d\n- Favorite personality: %s",
			stats.TotalMessages, stats.TotalSessions, favorite)})

	case "/help":
		c.send(wireMessage{Type: "system", Content: `Available Commands:
- /clear - Clear conversation history
- /switch <personality> - Switch between yui, friday, jarvis
- /stats - Show your usage statistics
- /info - Show conversation statistics
- /help - Show this help message
- /quit - Close the chat`})

	default:
		c.send(wireMessage{Type: "system", Content: fmt.Sprintf("Unknown command: %s (try /help)", fields[0])})
	}

	return false
}
