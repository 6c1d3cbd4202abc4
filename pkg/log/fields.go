package log

const (
	// Connection
	FieldConnID     = "conn_id"
	FieldRemoteAddr = "remote_addr"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat
	FieldRoomID   = "room_id"
	FieldRoomName = "room_name"
	FieldTarget   = "target"
	FieldCommand  = "command"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
