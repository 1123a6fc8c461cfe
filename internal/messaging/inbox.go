// Package messaging keeps the client-side view of conversations and contacts.
package messaging

import (
	"context"
	"errors"
	"etape/training-hub/internal/client"
	"etape/training-hub/internal/domain"
	"log"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyMessage = errors.New("message content is required")

// API is the part of the REST client the inbox uses.
type API interface {
	Conversations(ctx context.Context) ([]domain.Conversation, error)
	Thread(ctx context.Context, userID primitive.ObjectID, page client.Page) ([]domain.Message, error)
	SendMessage(ctx context.Context, recipientID primitive.ObjectID, content string) (*domain.Message, error)
	MyAthletes(ctx context.Context) ([]client.User, error)
	Assignments(ctx context.Context) ([]domain.TrainerAssignment, error)
}

// Contact is someone the user can message. Started is false until a message exists.
type Contact struct {
	domain.Conversation
	Started bool
}

type Inbox struct {
	api API
	me  domain.User

	mu            sync.RWMutex
	conversations []domain.Conversation
	counterparts  []domain.User
	threads       map[primitive.ObjectID][]domain.Message
}

func NewInbox(api API, me domain.User) *Inbox {
	return &Inbox{api: api, me: me, threads: map[primitive.ObjectID][]domain.Message{}}
}

// Refresh reloads conversations and counterparties together. Only the
// conversation list can fail the call; missing counterparties just narrow the contacts.
func (in *Inbox) Refresh(ctx context.Context) error {
	var (
		convs        []domain.Conversation
		counterparts []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		convs, err = in.api.Conversations(gctx)
		return err
	})
	g.Go(func() error {
		users, err := in.loadCounterparts(gctx)
		if err != nil {
			log.Printf("WARN: Could not load contacts for %s: %v", in.me.ID.Hex(), err)
			return nil
		}
		counterparts = users
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.conversations = convs
	in.counterparts = counterparts
	return nil
}

// loadCounterparts returns a trainer's athletes, or an athlete's active trainers.
func (in *Inbox) loadCounterparts(ctx context.Context) ([]domain.User, error) {
	switch in.me.Role {
	case domain.RoleTrainer:
		athletes, err := in.api.MyAthletes(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.User, 0, len(athletes))
		for _, a := range athletes {
			out = append(out, a.User)
		}
		return out, nil
	case domain.RoleAthlete:
		assignments, err := in.api.Assignments(ctx)
		if err != nil {
			return nil, err
		}
		var out []domain.User
		for _, a := range assignments {
			if a.IsActive && a.AthleteID == in.me.ID && a.Trainer != nil {
				out = append(out, *a.Trainer)
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

// Contacts lists existing conversations first, newest first, then
// counterparties not yet messaged, by name.
func (in *Inbox) Contacts() []Contact {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]Contact, 0, len(in.conversations)+len(in.counterparts))
	seen := make(map[primitive.ObjectID]bool, len(in.conversations))
	for _, c := range in.conversations {
		out = append(out, Contact{Conversation: c, Started: true})
		seen[c.UserID] = true
	}
	var fresh []Contact
	for _, u := range in.counterparts {
		if seen[u.ID] || u.ID == in.me.ID {
			continue
		}
		seen[u.ID] = true
		fresh = append(fresh, Contact{Conversation: conversationWith(u)})
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return strings.ToLower(fresh[i].UserName) < strings.ToLower(fresh[j].UserName)
	})
	return append(out, fresh...)
}

// UnreadTotal sums unread counts over known conversations.
func (in *Inbox) UnreadTotal() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	n := 0
	for _, c := range in.conversations {
		n += c.UnreadCount
	}
	return n
}

// Thread loads messages with userID. The server marks received messages
// read, so the local unread count for that conversation drops to zero.
func (in *Inbox) Thread(ctx context.Context, userID primitive.ObjectID, page client.Page) ([]domain.Message, error) {
	msgs, err := in.api.Thread(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.threads[userID] = msgs
	if i := in.indexOf(userID); i >= 0 {
		in.conversations[i].UnreadCount = 0
	}
	return append([]domain.Message(nil), msgs...), nil
}

// Messages returns the locally held thread with userID.
func (in *Inbox) Messages(userID primitive.ObjectID) []domain.Message {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]domain.Message(nil), in.threads[userID]...)
}

// Send posts a message and only then records it: the message is appended
// to the thread and the conversation preview moves to the top. A failed
// send leaves local state untouched.
func (in *Inbox) Send(ctx context.Context, recipientID primitive.ObjectID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := in.api.SendMessage(ctx, recipientID, content)
	if err != nil {
		return nil, err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.threads[recipientID] = append(in.threads[recipientID], *msg)

	conv := in.conversationFor(recipientID)
	conv.LastMessage = domain.Preview(msg.Content)
	conv.LastMessageAt = msg.CreatedAt
	if i := in.indexOf(recipientID); i >= 0 {
		in.conversations = append(in.conversations[:i], in.conversations[i+1:]...)
	}
	in.conversations = append([]domain.Conversation{conv}, in.conversations...)
	return msg, nil
}

// conversationFor returns a copy of the existing conversation or a new one from the counterpart. Callers hold mu.
func (in *Inbox) conversationFor(userID primitive.ObjectID) domain.Conversation {
	if i := in.indexOf(userID); i >= 0 {
		return in.conversations[i]
	}
	for _, u := range in.counterparts {
		if u.ID == userID {
			return conversationWith(u)
		}
	}
	return domain.Conversation{UserID: userID}
}

func (in *Inbox) indexOf(userID primitive.ObjectID) int {
	for i := range in.conversations {
		if in.conversations[i].UserID == userID {
			return i
		}
	}
	return -1
}

func conversationWith(u domain.User) domain.Conversation {
	return domain.Conversation{
		UserID:    u.ID,
		UserName:  u.FullName,
		UserEmail: u.Email,
		UserRole:  u.Role,
	}
}
