// internal/agent/conversation.go
package agent

import (
	"fmt"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

// turnPair is one assistant reply and the user message answering it.
type turnPair struct {
	assistant schemas.ChatMessage
	user      schemas.ChatMessage
}

// Conversation is the bounded chat history of a loop run: a fixed system/user
// header followed by at most window turn pairs. Older pairs are evicted first.
type Conversation struct {
	header [2]schemas.ChatMessage
	pairs  []turnPair
	window int
}

// NewConversation starts a history from the opening prompt. A window below 1
// is treated as 1.
func NewConversation(opening schemas.PromptInput, window int) *Conversation {
	if window < 1 {
		window = 1
	}
	return &Conversation{
		header: [2]schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: opening.System},
			{Role: schemas.RoleUser, Content: opening.User},
		},
		pairs:  make([]turnPair, 0, window+1),
		window: window,
	}
}

// Append adds an assistant reply with its follow-up user message and evicts
// the oldest pairs beyond the window.
func (c *Conversation) Append(assistant, user string) {
	c.pairs = append(c.pairs, turnPair{
		assistant: schemas.ChatMessage{Role: schemas.RoleAssistant, Content: assistant},
		user:      schemas.ChatMessage{Role: schemas.RoleUser, Content: user},
	})
	if excess := len(c.pairs) - c.window; excess > 0 {
		// Shift in place so the backing array does not grow across a long run.
		n := copy(c.pairs, c.pairs[excess:])
		for i := n; i < len(c.pairs); i++ {
			c.pairs[i] = turnPair{}
		}
		c.pairs = c.pairs[:n]
	}
	c.mustHoldInvariant()
}

// Messages returns a fresh copy of the history in send order.
func (c *Conversation) Messages() []schemas.ChatMessage {
	out := make([]schemas.ChatMessage, 0, 2+2*len(c.pairs))
	out = append(out, c.header[0], c.header[1])
	for _, p := range c.pairs {
		out = append(out, p.assistant, p.user)
	}
	return out
}

// Len is the number of messages Messages would return.
func (c *Conversation) Len() int { return 2 + 2*len(c.pairs) }

// Pairs is the number of retained turn pairs.
func (c *Conversation) Pairs() int { return len(c.pairs) }

func (c *Conversation) mustHoldInvariant() {
	if len(c.pairs) > c.window {
		panic(fmt.Sprintf("conversation holds %d pairs, window is %d", len(c.pairs), c.window))
	}
	if c.header[0].Role != schemas.RoleSystem || c.header[1].Role != schemas.RoleUser {
		panic("conversation header was modified")
	}
}
