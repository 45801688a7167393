// Package chat implements the WebSocket chat session (component H): the
// client registry, the JSON command grammar, the per-connection session
// loop, and broadcast fan-out.
package chat

import (
	"github.com/goccy/go-json"
)

// CommandType is the message_type discriminator of the JSON command
// grammar.
type CommandType string

const (
	CommandNick    CommandType = "nick"
	CommandPrivate CommandType = "private"
	CommandChat    CommandType = "chat"
	CommandHelp    CommandType = "help"
	CommandQuit    CommandType = "quit"
)

// Command is the JSON tagged union a client sends as a text frame. Only
// the fields relevant to MessageType are populated; the others are zero.
type Command struct {
	MessageType CommandType `json:"message_type"`
	Nick        string      `json:"nick,omitempty"`
	Receiver    string      `json:"receiver,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// ParseCommand decodes a text frame's payload into a Command. The
// caller, not ParseCommand, is responsible for the "Command not
// supported." reply on error — ParseCommand just reports why decoding
// failed.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Usage is the fixed multiline help text sent to a client on successful
// connect and in reply to a help command.
const Usage = `Commands:
  {"message_type":"nick","nick":"<name>"}              set your nickname
  {"message_type":"chat","message":"<text>"}           broadcast a message
  {"message_type":"private","receiver":"<nick>","message":"<text>"}  send a private message
  {"message_type":"help"}                              show this message
  {"message_type":"quit"}                              leave the chat`

const (
	replyCommandNotSupported = "Command not supported."
	replyLeaveImpossible     = "Leave impossible, you are not in the chat"
	replyLeft                = "You left the chat."
	replySetNicknameFirst    = "Set a nickname first with the nick command."
	replyTooFast             = "You are sending messages too quickly."
)

func replyHello(nick string) string {
	return "Hello " + nick + ", now you can send messages"
}

func replyNotConnected(nick string) string {
	return "Client with nickname: " + nick + " is not connected to chat"
}
