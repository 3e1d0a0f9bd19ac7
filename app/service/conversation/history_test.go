package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationLog(t *testing.T) {
	var log ConversationLog

	_, ok := log.first()
	assert.False(t, ok)
	_, ok = log.lastBy(AuthorAssistant)
	assert.False(t, ok)

	log.append(Message{ID: "1", Author: AuthorAssistant, Text: "welcome"})
	log.reseed(Message{ID: "1", Author: AuthorAssistant, Text: "स्वागत"})

	first, ok := log.first()
	require.True(t, ok)
	assert.Equal(t, "स्वागत", first.Text)

	log.append(Message{ID: "2", Author: AuthorUser, Text: "fever"})
	log.append(Message{ID: "3", Author: AuthorAssistant, Text: "rest"})
	log.append(Message{ID: "4", Author: AuthorUser, Text: "thanks"})

	log.reseed(Message{ID: "1", Author: AuthorAssistant, Text: "ignored"})
	first, _ = log.first()
	assert.Equal(t, "स्वागत", first.Text)

	last, ok := log.lastBy(AuthorAssistant)
	require.True(t, ok)
	assert.Equal(t, "3", last.ID)

	snapshot := log.snapshot()
	snapshot[0].Text = "mutated"
	first, _ = log.first()
	assert.Equal(t, "स्वागत", first.Text)
	assert.Equal(t, 4, log.len())
}
