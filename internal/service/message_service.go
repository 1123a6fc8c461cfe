package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds a single message body, in characters.
const MaxMessageLength = 5000

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotConnected    = errors.New("you can only message users you are connected with")
)

type MessageService interface {
	Send(ctx context.Context, actor Actor, recipientID primitive.ObjectID, content string) (*domain.Message, error)
	Conversations(ctx context.Context, actor Actor) ([]domain.Conversation, error)
	// Thread returns the messages exchanged with another user, oldest first,
	// and marks the ones received by the actor as read.
	Thread(ctx context.Context, actor Actor, otherID primitive.ObjectID, page repository.Page) ([]domain.Message, error)
	UnreadCount(ctx context.Context, actor Actor) (int64, error)
	MarkRead(ctx context.Context, actor Actor, messageID primitive.ObjectID) error
}

type messageService struct {
	messageRepo    repository.MessageRepository
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	now            func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
) MessageService {
	return &messageService{
		messageRepo:    messageRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

func (s *messageService) Send(ctx context.Context, actor Actor, recipientID primitive.ObjectID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, invalid("message exceeds %d characters", MaxMessageLength)
	}
	if recipientID == actor.ID {
		return nil, invalid("you cannot message yourself")
	}
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !actor.IsAdmin() && !recipient.IsAdmin() {
		ok, err := s.connected(ctx, actor.ID, recipientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotConnected
		}
	}

	msg := &domain.Message{
		SenderID:    actor.ID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now().UTC(),
	}
	if _, err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// connected reports an active assignment in either direction.
func (s *messageService) connected(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	ok, err := isAssigned(ctx, s.assignmentRepo, a, b)
	if err != nil || ok {
		return ok, err
	}
	return isAssigned(ctx, s.assignmentRepo, b, a)
}

func (s *messageService) Conversations(ctx context.Context, actor Actor) ([]domain.Conversation, error) {
	summaries, err := s.messageRepo.Conversations(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(summaries))
	for _, sum := range summaries {
		ids = append(ids, sum.UserID)
	}
	users, err := usersByID(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Conversation, 0, len(summaries))
	for _, sum := range summaries {
		conv := domain.Conversation{
			UserID:        sum.UserID,
			LastMessage:   domain.Preview(sum.Last.Content),
			LastMessageAt: sum.Last.CreatedAt,
			UnreadCount:   sum.UnreadCount,
		}
		if u := users[sum.UserID]; u != nil {
			conv.UserName = u.FullName
			conv.UserEmail = u.Email
			conv.UserRole = u.Role
		}
		out = append(out, conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (s *messageService) Thread(ctx context.Context, actor Actor, otherID primitive.ObjectID, page repository.Page) ([]domain.Message, error) {
	page = pageOrDefault(page, 50, 200)
	msgs, err := s.messageRepo.ListBetween(ctx, actor.ID, otherID, page)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if _, err := s.messageRepo.MarkReadFrom(ctx, actor.ID, otherID, s.now().UTC()); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *messageService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.messageRepo.CountUnread(ctx, actor.ID)
}

func (s *messageService) MarkRead(ctx context.Context, actor Actor, messageID primitive.ObjectID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if msg.RecipientID != actor.ID {
		return ErrForbidden
	}
	if msg.IsRead {
		return nil
	}
	return s.messageRepo.MarkRead(ctx, messageID, s.now().UTC())
}
