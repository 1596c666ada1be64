package app

import (
	"context"
	"errors"

	"civicvoice/api/internal/assistant"
	"civicvoice/api/internal/authpw"
	"civicvoice/api/internal/store"
)

// ListUsers returns every account for the user-management section.
func (s *Service) ListUsers(ctx context.Context) ([]store.Identity, error) {
	return s.passwords.ListUsers(ctx)
}

// CreateUser registers an account on behalf of an admin. The caller's own
// session is left untouched.
func (s *Service) CreateUser(ctx context.Context, actor Session, req authpw.RegisterRequest) (store.Identity, error) {
	identity, err := s.passwords.Register(ctx, req)
	if err != nil {
		return store.Identity{}, err
	}
	s.record(store.AuditEvent{
		Type:      store.AuditUserRegistered,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		Detail:    map[string]string{"username": identity.Username},
	})
	return identity, nil
}

// DeleteUser removes an account. Its sessions stop resolving on their next
// use because the user no longer exists.
func (s *Service) DeleteUser(ctx context.Context, actor Session, username string) (store.Identity, error) {
	identity, err := s.passwords.DeleteUser(ctx, username)
	if err != nil {
		return store.Identity{}, err
	}
	s.record(store.AuditEvent{
		Type:      store.AuditUserDeleted,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		Detail:    map[string]string{"username": identity.Username},
	})
	return identity, nil
}

func (s *Service) OpenChat(owner Session) (string, []assistant.Message, error) {
	id, messages, err := s.chats.Open(owner.UserID)
	return id, messages, chatError(err)
}

func (s *Service) SendChat(ctx context.Context, owner Session, chatID, text string) (assistant.Message, error) {
	msg, err := s.chats.Send(ctx, chatID, owner.UserID, text)
	return msg, chatError(err)
}

func chatError(err error) error {
	if errors.Is(err, assistant.ErrShutDown) {
		return ErrChatUnavailable
	}
	return err
}

func (s *Service) ChatTranscript(owner Session, chatID string) ([]assistant.Message, int, error) {
	messages, err := s.chats.Transcript(chatID, owner.UserID)
	if err != nil {
		return nil, 0, err
	}
	pending, err := s.chats.Pending(chatID, owner.UserID)
	if err != nil {
		return nil, 0, err
	}
	return messages, pending, nil
}

func (s *Service) CloseChat(owner Session, chatID string) error {
	return s.chats.Close(chatID, owner.UserID)
}
