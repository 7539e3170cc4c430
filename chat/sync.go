// Package chat keeps support threads in step between customers and admins:
// thread identity, message append, unread reconciliation, the automated
// welcome and the projection every chat surface renders from.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"caintamart/docstore"
	"caintamart/models"
)

var ErrThreadNotFound = errors.New("chat thread not found")

func threadPath(id string) string   { return docstore.Join("chats", id) }
func messagesPath(id string) string { return docstore.Join("chats", id, "messages") }

// Synchronizer writes chat traffic to the gateway.
type Synchronizer struct {
	store docstore.Store
	now   func() time.Time
	auto  *AutoResponder

	mu      sync.Mutex
	claimed map[string]bool
}

func NewSynchronizer(store docstore.Store, autoDelay time.Duration) *Synchronizer {
	s := &Synchronizer{store: store, now: time.Now, claimed: map[string]bool{}}
	s.auto = NewAutoResponder(autoDelay, s.runWelcome)
	return s
}

// SetClock replaces the time source.
func (s *Synchronizer) SetClock(now func() time.Time) { s.now = now }

// Close cancels pending welcomes and waits for running ones.
func (s *Synchronizer) Close() { s.auto.Stop() }

// SendMessage appends text to threadID and updates the thread summary,
// creating the thread on a customer's first message. Admins can only reply
// to threads that exist. Empty input is a no-op that returns a nil message.
func (s *Synchronizer) SendMessage(ctx context.Context, threadID, senderName, text string, role models.Role, userID string) (*models.Message, error) {
	body := NormalizeText(text)
	if body == "" {
		return nil, nil
	}
	if threadID == "" {
		return nil, models.Invalid("threadId", "is required")
	}
	if !role.Valid() {
		return nil, models.Invalid("role", "must be customer or admin")
	}

	var thread models.ChatThread
	err := s.store.Read(ctx, threadPath(threadID), &thread)
	exists := err == nil
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("chat: read thread %s: %w", threadID, err)
	}
	if !exists && role == models.RoleAdmin {
		return nil, ErrThreadNotFound
	}

	now := s.now()
	msg := models.Message{
		Sender:    senderName,
		Role:      role,
		Text:      body,
		Timestamp: now,
	}
	id, err := s.store.Append(ctx, messagesPath(threadID), msg)
	if err != nil {
		return nil, fmt.Errorf("chat: append message to %s: %w", threadID, err)
	}
	msg.ID = id

	fields := map[string]any{
		"lastMessageAt": now,
		"lastMessageBy": senderName,
		"lastMessage":   Preview(body),
	}
	if !exists {
		fields["id"] = threadID
		fields["status"] = models.ThreadOpen
		fields["autoResponseSent"] = false
		fields["createdAt"] = now
		fields["unreadForCustomer"] = false
		fields["unreadForAdmin"] = false
	}
	switch role {
	case models.RoleCustomer:
		fields["unreadForAdmin"] = true
		fields["customerName"] = senderName
		if userID != "" {
			fields["userId"] = userID
		}
	case models.RoleAdmin:
		fields["unreadForCustomer"] = true
		fields["unreadForAdmin"] = false
	}
	if err := s.store.Merge(ctx, threadPath(threadID), fields); err != nil {
		return nil, fmt.Errorf("chat: update thread %s: %w", threadID, err)
	}

	if role == models.RoleCustomer && !thread.AutoResponseSent {
		s.claimWelcome(threadID)
	}
	return &msg, nil
}

// claimWelcome schedules the welcome once per thread per process.
func (s *Synchronizer) claimWelcome(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[threadID] {
		return
	}
	if s.auto.Schedule(threadID) {
		s.claimed[threadID] = true
	}
}

func (s *Synchronizer) release(threadID string) {
	s.mu.Lock()
	delete(s.claimed, threadID)
	s.mu.Unlock()
}

func (s *Synchronizer) runWelcome(ctx context.Context, threadID string) error {
	if err := s.SendAutoResponse(ctx, threadID); err != nil {
		s.release(threadID)
		return err
	}
	return nil
}

// WelcomeText is the automated first reply addressed to name.
func WelcomeText(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(welcomeTemplate, name)
}

// SendAutoResponse appends the welcome message as "Admin (Auto)" unless the
// thread already received one.
func (s *Synchronizer) SendAutoResponse(ctx context.Context, threadID string) error {
	var thread models.ChatThread
	if err := s.store.Read(ctx, threadPath(threadID), &thread); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("chat: read thread %s: %w", threadID, err)
	}
	if thread.AutoResponseSent {
		return nil
	}

	now := s.now()
	body := WelcomeText(thread.CustomerName)
	msg := models.Message{
		Sender:         AutoSender,
		Role:           models.RoleAdmin,
		Text:           body,
		Timestamp:      now,
		IsAutoResponse: true,
	}
	if _, err := s.store.Append(ctx, messagesPath(threadID), msg); err != nil {
		return fmt.Errorf("chat: append welcome to %s: %w", threadID, err)
	}
	err := s.store.Merge(ctx, threadPath(threadID), map[string]any{
		"lastMessageAt":     now,
		"lastMessageBy":     AutoSender,
		"lastMessage":       Preview(body),
		"unreadForCustomer": true,
		"unreadForAdmin":    false,
		"autoResponseSent":  true,
	})
	if err != nil {
		return fmt.Errorf("chat: update thread %s: %w", threadID, err)
	}
	log.Printf("[chat] welcome sent to %s", threadID)
	return nil
}

// MarkRead clears the unread flag that belongs to role and nothing else.
func (s *Synchronizer) MarkRead(ctx context.Context, threadID string, role models.Role) error {
	if !role.Valid() {
		return models.Invalid("role", "must be customer or admin")
	}
	var thread models.ChatThread
	if err := s.store.Read(ctx, threadPath(threadID), &thread); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("chat: read thread %s: %w", threadID, err)
	}
	field := "unreadForCustomer"
	if role == models.RoleAdmin {
		field = "unreadForAdmin"
	}
	if !thread.UnreadFor(role) {
		return nil
	}
	if err := s.store.Merge(ctx, threadPath(threadID), map[string]any{field: false}); err != nil {
		return fmt.Errorf("chat: mark %s read: %w", threadID, err)
	}
	return nil
}

// Thread reads one thread with its messages.
func (s *Synchronizer) Thread(ctx context.Context, threadID string) (models.ChatThread, error) {
	var thread models.ChatThread
	if err := s.store.Read(ctx, threadPath(threadID), &thread); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return thread, ErrThreadNotFound
		}
		return thread, err
	}
	thread.ID = threadID
	msgs, err := s.messages(ctx, threadID)
	if err != nil {
		return thread, err
	}
	thread.Messages = msgs
	return thread, nil
}

func (s *Synchronizer) messages(ctx context.Context, threadID string) ([]models.Message, error) {
	msgs, ids, err := docstore.ListDecoded[models.Message](ctx, s.store, messagesPath(threadID))
	if err != nil {
		return nil, fmt.Errorf("chat: list messages %s: %w", threadID, err)
	}
	for i := range msgs {
		msgs[i].ID = ids[i]
	}
	return msgs, nil
}
