package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/metrics"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/models"
)

// ActivityEvent is what gets pushed to a recipient's live channel when
// a message addressed to them is stored.
type ActivityEvent struct {
	SenderID  uint           `json:"sender_id"`
	Kind      Kind           `json:"kind"`
	Preview   string         `json:"preview"`
	Timestamp time.Time      `json:"timestamp"`
	Message   models.Message `json:"message"`
}

// Pusher delivers an activity event to a user's live channel, if any.
// Delivery is fire-and-forget: no live channel means the event is
// dropped and the recipient catches up on their next roster fetch.
type Pusher interface {
	Deliver(userID uint, ev ActivityEvent)
}

// Presence reports which users currently hold a live channel.
type Presence interface {
	IsOnline(userID uint) bool
}

// Service owns message persistence and fan-out: the send coordinator
// plus the roster and transcript fetch operations.
type Service struct {
	db       *gorm.DB
	push     Pusher
	presence Presence
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewService(db *gorm.DB, push Pusher, presence Presence, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{db: db, push: push, presence: presence, metrics: m, log: log}
}

// SendInput is the caller-supplied part of a message. ClientMsgID is an
// optional resend key; a second send with the same sender and key
// returns the already-stored message instead of storing a duplicate.
type SendInput struct {
	ClientMsgID string
	Kind        Kind
	Text        string
	MediaRef    string
}

func (in SendInput) normalized() (SendInput, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" && in.MediaRef == "" {
		return in, ErrEmptyMessage
	}
	if in.Kind == "" {
		if in.MediaRef != "" {
			in.Kind = KindImage
		} else {
			in.Kind = KindText
		}
	}
	if !ValidKind(in.Kind) {
		return in, ErrInvalidKind
	}
	if in.Kind == KindText && in.Text == "" {
		return in, ErrEmptyMessage
	}
	if in.Kind != KindText && in.MediaRef == "" {
		return in, ErrEmptyMessage
	}
	return in, nil
}

// Send validates, persists and fans out one message. The write commits
// before the push goes out, so a delivered event always refers to a
// durable message.
func (s *Service) Send(ctx context.Context, senderID, receiverID uint, in SendInput) (models.Message, error) {
	in, err := in.normalized()
	if err != nil {
		return models.Message{}, err
	}

	var peer models.User
	if err := s.db.WithContext(ctx).First(&peer, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, ErrUnknownPeer
		}
		return models.Message{}, fmt.Errorf("look up peer: %w", err)
	}

	if in.ClientMsgID != "" {
		var prior models.Message
		err := s.db.WithContext(ctx).
			Where("sender_id = ? AND client_msg_id = ?", senderID, in.ClientMsgID).
			First(&prior).Error
		if err == nil {
			s.log.Debug("resend deduplicated",
				zap.Uint("sender_id", senderID),
				zap.String("client_msg_id", in.ClientMsgID))
			return prior, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, fmt.Errorf("look up client_msg_id: %w", err)
		}
	} else {
		in.ClientMsgID = uuid.NewString()
	}

	msg := models.Message{
		ClientMsgID: in.ClientMsgID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Kind:        string(in.Kind),
		Text:        in.Text,
		MediaRef:    in.MediaRef,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}
	s.metrics.MessagesStored.Inc()

	sum := SummaryOf(msg)
	if s.push != nil {
		s.push.Deliver(receiverID, ActivityEvent{
			SenderID:  senderID,
			Kind:      sum.Kind,
			Preview:   sum.Preview,
			Timestamp: sum.Timestamp,
			Message:   msg,
		})
	}

	s.log.Debug("message stored",
		zap.Uint("id", msg.ID),
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", receiverID),
		zap.String("kind", msg.Kind))
	return msg, nil
}

// Roster returns every other known user annotated with the most recent
// message between them and userID, ordered by that activity, newest
// first; users with no history sort last by id. Presence is merged in
// here and never stored.
func (s *Service) Roster(ctx context.Context, userID uint) (Roster, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id <> ?", userID).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	// First hit per peer is the latest message of that pair.
	latest := make(map[uint]models.Message, len(users))
	for _, m := range msgs {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		if _, seen := latest[peer]; !seen {
			latest[peer] = m
		}
	}

	roster := make(Roster, 0, len(users))
	for _, u := range users {
		c := Contact{
			ID:        u.ID,
			Name:      u.Name,
			AvatarURL: u.AvatarURL,
			Summary:   Summary{Kind: KindNone},
		}
		if m, ok := latest[u.ID]; ok {
			c.Summary = SummaryOf(m)
		}
		if s.presence != nil {
			c.Online = s.presence.IsOnline(u.ID)
		}
		roster = append(roster, c)
	}
	SortByActivity(roster)
	return roster, nil
}

const defaultTranscriptLimit = 50

// Transcript returns messages between userID and peerID in either
// direction, oldest first. limit and beforeID page backwards through
// history: beforeID > 0 restricts to messages older than that id.
func (s *Service) Transcript(ctx context.Context, userID, peerID uint, limit int, beforeID uint) ([]models.Message, error) {
	var peer models.User
	if err := s.db.WithContext(ctx).First(&peer, peerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownPeer
		}
		return nil, fmt.Errorf("look up peer: %w", err)
	}

	if limit <= 0 || limit > 200 {
		limit = defaultTranscriptLimit
	}

	q := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []models.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// Query runs descending for the limit; flip to ascending for display.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
