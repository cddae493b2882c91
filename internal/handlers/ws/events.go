package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event types. The set is closed: dispatch is an exhaustive switch
// and anything else is answered with UNKNOWN_EVENT.
const (
	EventAuthenticate      = "authenticate"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventReadReceipt       = "read_receipt"
	EventReconnect         = "reconnect"
	EventGetMissedMessages = "get_missed_messages"
	EventNotificationsSync = "notifications_sync"
	EventEditMessage       = "edit_message"
	EventDeleteMessage     = "delete_message"
	EventPing              = "ping"
)

// Outbound event types.
const (
	EventAuthRequired        = "auth_required"
	EventAuthenticated       = "authenticated"
	EventError               = "error"
	EventMessage             = "message"
	EventMessageSent         = "message_sent"
	EventMissedMessage       = "missed_message"
	EventMissedMessages      = "missed_messages"
	EventMissedNotifications = "missed_notifications"
	EventReadReceiptSent     = "read_receipt_sent"
	EventReconnected         = "reconnected"
	EventPresence            = "presence"
	EventNotification        = "notification"
	EventMessageEdited       = "message_edited"
	EventMessageDeleted      = "message_deleted"
	EventPong                = "pong"
)

// Error codes carried in error frames.
const (
	CodeAuthFailed      = "AUTH_FAILED"
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeForbidden       = "FORBIDDEN"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnknownEvent    = "UNKNOWN_EVENT"
	CodeNotFound        = "NOT_FOUND"
	CodeReconnectFailed = "RECONNECT_FAILED"
	CodeInternal        = "INTERNAL_ERROR"
)

// Application close codes.
const (
	CloseUnauthorized = 4001
	CloseForbidden    = 4003
)

// NotificationsTarget is the sentinel conversation target for sessions that
// only want notification delivery.
const NotificationsTarget = "notifications"

var errAttachmentsNotList = errors.New("attachments must be a list of strings")

// ClientEvent is the flat inbound frame. One struct covers every event
// type; unused fields stay zero.
type ClientEvent struct {
	Type           string          `json:"type"`
	Token          string          `json:"token,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	RecipientID    string          `json:"recipient_id,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
	Text           string          `json:"text,omitempty"`
	NewText        string          `json:"new_text,omitempty"`
	Attachments    json.RawMessage `json:"attachments,omitempty"`
	IsTyping       *bool           `json:"is_typing,omitempty"`
	LastSeen       string          `json:"last_seen,omitempty"`
	MessageIDs     []string        `json:"message_ids,omitempty"`
	ReadIDs        []string        `json:"read_ids,omitempty"`
	UnreadOnly     *bool           `json:"unread_only,omitempty"`
	Limit          int             `json:"limit,omitempty"`
}

// ParseAttachments decodes the attachments field, rejecting anything that
// is not a JSON list of strings. Absent means no attachments.
func (e *ClientEvent) ParseAttachments() ([]string, error) {
	if len(e.Attachments) == 0 {
		return nil, nil
	}
	var attachments []string
	if err := json.Unmarshal(e.Attachments, &attachments); err != nil {
		return nil, errAttachmentsNotList
	}
	return attachments, nil
}

// Group event kinds. Each kind has its own delivery rule in
// Session.Deliver (self-echo suppression, duplicate suppression).
const (
	KindChatMessage    = "chat_message"
	KindTyping         = "typing_indicator"
	KindReadReceipt    = "read_receipt"
	KindPresence       = "presence_update"
	KindNotification   = "notification_received"
	KindMessageEdited  = "message_edited"
	KindMessageDeleted = "message_deleted"
)

// GroupEvent is what the hub fans out to group members. Payload is the
// ready-to-send outbound frame; Kind and the sender/message ids exist only
// so each member can decide whether to forward it.
type GroupEvent struct {
	Kind      string
	SenderID  string
	MessageID string
	Payload   map[string]interface{}
}

func ConversationGroup(conversationID string) string {
	return fmt.Sprintf("chat_%s", conversationID)
}

func NotificationGroup(userID string) string {
	return fmt.Sprintf("notifications_%s", userID)
}
