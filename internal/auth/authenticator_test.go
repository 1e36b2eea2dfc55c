package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// stubUserRepo — заглушка UserRepository для unit-тестов.
type stubUserRepo struct {
	repository.UserRepository
	byEmail map[string]*model.User
	byID    map[string]*model.User
	err     error
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newTestAuthenticator(repo repository.UserRepository) *Authenticator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthenticator(repo, logger)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "analyst@example.gov", Username: "analyst@example.gov"}
	repo := &stubUserRepo{byEmail: map[string]*model.User{user.Email: user}}
	a := newTestAuthenticator(repo)
	ctx := context.Background()

	if got := a.Authenticate(ctx, "analyst@example.gov"); got == nil || got.ID != "u-1" {
		t.Errorf("Authenticate(существующий) = %v, ожидается пользователь u-1", got)
	}
	if got := a.Authenticate(ctx, "nobody@example.gov"); got != nil {
		t.Errorf("Authenticate(несуществующий) = %v, ожидается nil", got)
	}
	if got := a.Authenticate(ctx, ""); got != nil {
		t.Errorf("Authenticate(\"\") = %v, ожидается nil", got)
	}
}

// TestAuthenticator_NeverPropagatesErrors проверяет, что сбой хранилища
// не приводит к панике или ошибке: возвращается nil, как при отсутствии.
func TestAuthenticator_NeverPropagatesErrors(t *testing.T) {
	repo := &stubUserRepo{err: errors.New("база недоступна")}
	a := newTestAuthenticator(repo)
	ctx := context.Background()

	if got := a.Authenticate(ctx, "analyst@example.gov"); got != nil {
		t.Errorf("Authenticate() при сбое БД = %v, ожидается nil", got)
	}
	if got := a.GetUser(ctx, "u-1"); got != nil {
		t.Errorf("GetUser() при сбое БД = %v, ожидается nil", got)
	}
}

func TestAuthenticator_GetUser(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "analyst@example.gov"}
	repo := &stubUserRepo{byID: map[string]*model.User{user.ID: user}}
	a := newTestAuthenticator(repo)
	ctx := context.Background()

	if got := a.GetUser(ctx, "u-1"); got == nil || got.Email != "analyst@example.gov" {
		t.Errorf("GetUser(u-1) = %v, ожидается пользователь", got)
	}
	if got := a.GetUser(ctx, "missing"); got != nil {
		t.Errorf("GetUser(missing) = %v, ожидается nil", got)
	}
	if got := a.GetUser(ctx, ""); got != nil {
		t.Errorf("GetUser(\"\") = %v, ожидается nil", got)
	}
}
