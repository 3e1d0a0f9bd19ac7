package conversation

import (
	"github.com/elliotchance/pie/v2"
)

// ConversationLog is append-only; insertion order is chronological order.
type ConversationLog struct {
	messages []Message
}

func (l *ConversationLog) append(msg Message) {
	l.messages = append(l.messages, msg)
}

// reseed replaces the first message, used only while it is the sole entry.
func (l *ConversationLog) reseed(msg Message) {
	if len(l.messages) == 1 {
		l.messages[0] = msg
	}
}

func (l *ConversationLog) len() int {
	return len(l.messages)
}

func (l *ConversationLog) first() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[0], true
}

func (l *ConversationLog) lastBy(author Author) (Message, bool) {
	reversed := pie.Reverse(l.messages)

	index := pie.FindFirstUsing(reversed, func(msg Message) bool {
		return msg.Author == author
	})
	if index < 0 {
		return Message{}, false
	}

	return reversed[index], true
}

func (l *ConversationLog) snapshot() []Message {
	result := make([]Message, len(l.messages))
	copy(result, l.messages)
	return result
}
