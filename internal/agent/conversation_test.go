package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
)

var opening = schemas.PromptInput{System: "sys", User: "goal"}

func TestConversation_StartsWithHeader(t *testing.T) {
	conv := NewConversation(opening, 3)

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, schemas.ChatMessage{Role: schemas.RoleSystem, Content: "sys"}, msgs[0])
	assert.Equal(t, schemas.ChatMessage{Role: schemas.RoleUser, Content: "goal"}, msgs[1])
}

func TestConversation_WindowStabilizes(t *testing.T) {
	for _, window := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("window=%d", window), func(t *testing.T) {
			conv := NewConversation(opening, window)

			for i := 1; i <= window+4; i++ {
				conv.Append(fmt.Sprintf("a%d", i), fmt.Sprintf("u%d", i))

				want := 2 + 2*min(i, window)
				msgs := conv.Messages()
				require.Len(t, msgs, want)
				assert.Equal(t, want, conv.Len())
				assert.Equal(t, "sys", msgs[0].Content, "header must never change")
				assert.Equal(t, "goal", msgs[1].Content, "header must never change")

				// The newest pair always sits at the tail.
				assert.Equal(t, fmt.Sprintf("a%d", i), msgs[len(msgs)-2].Content)
				assert.Equal(t, fmt.Sprintf("u%d", i), msgs[len(msgs)-1].Content)
			}
			assert.Equal(t, window, conv.Pairs())
		})
	}
}

func TestConversation_KeepsNewestPairsInOrder(t *testing.T) {
	conv := NewConversation(opening, 2)
	for i := 1; i <= 4; i++ {
		conv.Append(fmt.Sprintf("a%d", i), fmt.Sprintf("u%d", i))
	}

	var contents []string
	var roles []schemas.ChatRole
	for _, m := range conv.Messages() {
		contents = append(contents, m.Content)
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{"sys", "goal", "a3", "u3", "a4", "u4"}, contents)
	assert.Equal(t, []schemas.ChatRole{
		schemas.RoleSystem, schemas.RoleUser,
		schemas.RoleAssistant, schemas.RoleUser,
		schemas.RoleAssistant, schemas.RoleUser,
	}, roles)
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := NewConversation(opening, 2)
	conv.Append("a1", "u1")

	msgs := conv.Messages()
	msgs[0].Content = "tampered"
	msgs[2].Content = "tampered"

	fresh := conv.Messages()
	assert.Equal(t, "sys", fresh[0].Content)
	assert.Equal(t, "a1", fresh[2].Content)
}

func TestConversation_WindowBelowOneIsOne(t *testing.T) {
	conv := NewConversation(opening, 0)
	conv.Append("a1", "u1")
	conv.Append("a2", "u2")
	assert.Equal(t, 4, conv.Len())
}
