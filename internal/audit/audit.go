package audit

import (
	"context"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

// Audit actions for the chat server.
const (
	ActionRegister     = "chat.register"
	ActionLogin        = "chat.login"
	ActionLoginFailed  = "chat.login_failed"
	ActionJoinRoom     = "chat.join_room"
	ActionCreateRoom   = "chat.create_room"
	ActionSendMessage  = "chat.send_message"
	ActionSendDM       = "chat.send_dm"
	ActionSpamRejected = "chat.spam_rejected"
	ActionKick         = "chat.admin_kick"
	ActionBroadcast    = "chat.admin_broadcast"
	ActionDisconnect   = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, username string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, username string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Str(FieldDetail, detail).
		Msg(msg)
}
