package domain

// ChatTypePrivate is the chat type of a one-to-one conversation with the bot.
const ChatTypePrivate = "private"

// IncomingMessage is a single inbound platform message, already stripped of
// transport-specific types.
type IncomingMessage struct {
	UpdateID  int
	ChatID    int64
	ChatType  string
	MessageID int
	Text      string
	FromBot   bool
	// Command is the lowercased command name without the leading slash.
	// CommandTarget is the bot named after "@", empty when unaddressed.
	Command       string
	CommandTarget string
	IsReply       bool
	ReplyToText   string
}

// IsPrivate reports whether the message was sent in a private chat.
func (m IncomingMessage) IsPrivate() bool {
	return m.ChatType == ChatTypePrivate
}
