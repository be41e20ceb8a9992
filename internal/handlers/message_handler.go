package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type MessageHandler struct {
	db        *gorm.DB
	publisher realtime.Publisher
	log       *zap.Logger
}

func NewMessageHandler(db *gorm.DB, publisher realtime.Publisher, log *zap.Logger) *MessageHandler {
	return &MessageHandler{db: db, publisher: publisher, log: log}
}

// ======================================================
// REQUESTS
// ======================================================

// SendMessageRequest targets a booking or, without one, a user directly.
type SendMessageRequest struct {
	BookingID  *uint  `json:"booking_id"`
	ReceiverID *uint  `json:"receiver_id"`
	Content    string `json:"content" binding:"required,max=2000"`
}

type ConversationRequest struct {
	BookingID *uint `json:"booking_id"`
	UserID    *uint `json:"user_id"`
}

type Conversation struct {
	UserID      uint           `json:"user_id"`
	UserName    string         `json:"user_name"`
	BookingID   *uint          `json:"booking_id"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int            `json:"unread_count"`
}

// ======================================================
// SEND
// ======================================================

func (h *MessageHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	senderID := currentUserID(c)

	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		httperr.BadRequest(c, "empty_message", "content must not be blank")
		return
	}

	msg := models.Message{
		SenderID: senderID,
		Content:  content,
	}

	switch {
	case req.BookingID != nil:
		b, err := h.chatBooking(ctx, senderID, *req.BookingID)
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		if err := domain.CanChat(domain.Status(b.Status)); err != nil {
			httperr.FromError(c, err)
			return
		}
		msg.BookingID = &b.ID
		msg.ReceiverID = b.Counterpart(senderID)

	case req.ReceiverID != nil:
		if *req.ReceiverID == senderID {
			httperr.BadRequest(c, "self_message", "cannot message yourself")
			return
		}
		if err := h.db.WithContext(ctx).First(&models.User{}, *req.ReceiverID).Error; err != nil {
			httperr.NotFound(c, "receiver_not_found", "receiver not found")
			return
		}
		msg.ReceiverID = *req.ReceiverID

	default:
		httperr.BadRequest(c, "missing_recipient", "booking_id or receiver_id is required")
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Booking", "Sender", "Receiver").Create(&msg).Error; err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			UserID:    msg.ReceiverID,
			BookingID: msg.BookingID,
			Type:      models.NotificationNewMessage,
			Message:   "New message: " + preview(content),
		}).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_send_message", "could not send message")
		return
	}

	h.db.WithContext(ctx).Preload("Sender").Preload("Receiver").First(&msg, msg.ID)

	h.publisher.Publish(ctx, realtime.Event{
		Name:      realtime.EventMessageCreated,
		SubjectID: msg.ID,
		UserIDs:   []uint{msg.SenderID, msg.ReceiverID},
		Data:      msg,
	})

	c.JSON(http.StatusCreated, msg)
}

// ======================================================
// READ
// ======================================================

// List returns one thread: ?booking_id= or ?user_id= for direct messages.
func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentUserID(c)

	q := h.db.WithContext(ctx).Preload("Sender").Preload("Receiver")

	if bookingID, ok := queryID(c, "booking_id"); ok {
		if _, err := h.chatBooking(ctx, me, bookingID); err != nil {
			httperr.FromError(c, err)
			return
		}
		q = q.Where("booking_id = ?", bookingID)
	} else if other, ok := queryID(c, "user_id"); ok {
		q = q.Where("booking_id IS NULL").
			Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", me, other, other, me)
	} else {
		httperr.BadRequest(c, "missing_conversation", "booking_id or user_id is required")
		return
	}

	var msgs []models.Message
	if err := q.Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		httperr.Internal(c, "failed_to_list_messages", "could not list messages")
		return
	}

	c.JSON(http.StatusOK, msgs)
}

// Conversations groups the caller's messages by thread, newest first.
func (h *MessageHandler) Conversations(c *gin.Context) {
	me := currentUserID(c)

	var msgs []models.Message
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", me, me).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error; err != nil {

		httperr.Internal(c, "failed_to_list_conversations", "could not list conversations")
		return
	}

	type threadKey struct {
		user    uint
		booking uint
	}

	index := map[threadKey]int{}
	out := []Conversation{}
	for _, m := range msgs {
		other, name := m.ReceiverID, m.Receiver.Name
		if m.ReceiverID == me {
			other, name = m.SenderID, m.Sender.Name
		}
		k := threadKey{user: other}
		if m.BookingID != nil {
			k.booking = *m.BookingID
		}

		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, Conversation{
				UserID:      other,
				UserName:    name,
				BookingID:   m.BookingID,
				LastMessage: m,
			})
		}
		if m.ReceiverID == me && !m.IsRead {
			out[i].UnreadCount++
		}
	}

	c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var msg models.Message
	if err := h.db.WithContext(c.Request.Context()).First(&msg, id).Error; err != nil {
		httperr.NotFound(c, "message_not_found", "message not found")
		return
	}
	if msg.ReceiverID != currentUserID(c) {
		httperr.Forbidden(c, "not_message_receiver", "only the receiver can mark a message as read")
		return
	}

	if !msg.IsRead {
		now := time.Now().UTC()
		msg.IsRead = true
		msg.ReadAt = &now
		if err := h.db.WithContext(c.Request.Context()).
			Model(&msg).
			Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {

			httperr.Internal(c, "failed_to_update_message", "could not update message")
			return
		}
	}

	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentUserID(c)

	var req ConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	q := h.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", me, false)

	switch {
	case req.BookingID != nil:
		if _, err := h.chatBooking(ctx, me, *req.BookingID); err != nil {
			httperr.FromError(c, err)
			return
		}
		q = q.Where("booking_id = ?", *req.BookingID)
	case req.UserID != nil:
		q = q.Where("booking_id IS NULL AND sender_id = ?", *req.UserID)
	default:
		httperr.BadRequest(c, "missing_conversation", "booking_id or user_id is required")
		return
	}

	res := q.Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	if res.Error != nil {
		httperr.Internal(c, "failed_to_update_message", "could not update messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}

// ======================================================
// HELPERS
// ======================================================

func (h *MessageHandler) chatBooking(ctx context.Context, userID, bookingID uint) (*models.Booking, error) {
	var b models.Booking
	if err := h.db.WithContext(ctx).First(&b, bookingID).Error; err != nil {
		if httperr.IsNotFound(err) {
			return nil, httperr.ErrNotFound("booking_not_found", "booking not found")
		}
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, httperr.ErrForbidden("not_booking_party", "only the client or the provider can access this chat")
	}
	return &b, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= 80 {
		return s
	}
	return string(r[:80]) + "..."
}
