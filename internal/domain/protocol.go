package domain

import (
	"fmt"
	"time"
)

// Wire-protocol line formats. The transport is newline-delimited UTF-8
// text; every server push is a single line built by one of these helpers.

// AuthMenu is sent to every unauthenticated connection before each read.
const AuthMenu = "Welcome! Choose an action:\n" +
	"1. /login <username> <password>\n" +
	"2. /register <username> <password>\n" +
	"3. /exit"

// HelpText lists the post-authentication commands.
const HelpText = "Available commands:\n" +
	"/rooms - list rooms\n" +
	"/join <room> - join a room\n" +
	"/create <room> - create a room\n" +
	"/users - list online users\n" +
	"/msg <user> <text> - send a direct message (/pm works too)\n" +
	"/inbox - your recent direct messages\n" +
	"/chat <user> - direct message thread with a user\n" +
	"/myinfo - your info\n" +
	"/help - this help\n" +
	"/exit - disconnect"

// SystemNotice formats a server-initiated notice.
func SystemNotice(text string) string {
	return "[SYSTEM] " + text
}

// RoomLine formats a room broadcast.
func RoomLine(username, text string) string {
	return username + ": " + text
}

// DMLine formats a direct message as seen by the recipient.
func DMLine(from, text string) string {
	return "[DM from " + from + "] " + text
}

// DMConfirmLine formats the sender's delivery confirmation.
func DMConfirmLine(to, text string) string {
	return "[DM to " + to + "] " + text
}

// HistoryLine formats one replayed message.
func HistoryLine(at time.Time, username, text string) string {
	return fmt.Sprintf("[%s] %s: %s", at.Format("15:04"), username, text)
}

// ErrorLine formats an error reply.
func ErrorLine(reason string) string {
	return "Error: " + reason
}
