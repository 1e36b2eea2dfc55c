// users.go — управление пользователями: регистрация при первом входе
// через Login.gov и начальный суперпользователь.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/domain/rbac"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// UsersService — бизнес-логика пользователей.
type UsersService struct {
	users  repository.UserRepository
	perms  repository.PermissionRepository
	logger *slog.Logger
}

// NewUsersService создаёт сервис пользователей. perms может быть nil:
// тогда перечисление разрешений отключено.
func NewUsersService(users repository.UserRepository, perms repository.PermissionRepository, logger *slog.Logger) *UsersService {
	return &UsersService{
		users:  users,
		perms:  perms,
		logger: logger.With(slog.String("component", "users_service")),
	}
}

// GetOrCreateByEmail возвращает пользователя с подтверждённым email,
// создавая его при первом входе. Повторный вход не создаёт дубликата.
// Пароль нового пользователя — непригодный sentinel: вход по паролю
// невозможен, единственный способ аутентификации — Login.gov.
func (s *UsersService) GetOrCreateByEmail(ctx context.Context, email, loginGovUUID string) (user *model.User, created bool, err error) {
	user, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		// Привязываем Login.gov UUID, если пользователь создан раньше
		// (например, предзасеян суперпользователем) и ещё не входил
		if user.LoginGovUUID == nil && loginGovUUID != "" {
			if err := s.users.SetLoginGovUUID(ctx, user.ID, loginGovUUID); err != nil {
				return nil, false, fmt.Errorf("ошибка привязки Login.gov UUID: %w", err)
			}
			user.LoginGovUUID = &loginGovUUID
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	user = &model.User{
		Username: email,
		Email:    email,
		Password: model.MakeUnusablePassword(),
		IsActive: true,
	}
	if loginGovUUID != "" {
		user.LoginGovUUID = &loginGovUUID
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Конкурентный вход того же пользователя: запись уже появилась
		if errors.Is(err, repository.ErrConflict) {
			existing, getErr := s.users.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, fmt.Errorf("ошибка получения пользователя после конфликта: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.logger.Info("Зарегистрирован новый пользователь",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return user, true, nil
}

// SyncGroupFlags приводит флаг is_staff в соответствие с группами
// пользователя. Суперпользователь не понижается: его флаг управляется
// только предзасеиванием.
func (s *UsersService) SyncGroupFlags(ctx context.Context, user *model.User) error {
	if user.IsSuperuser {
		return nil
	}

	groups, err := s.users.ListGroups(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("ошибка получения групп пользователя: %w", err)
	}

	isStaff := rbac.MapGroupsToFlags(groups)
	if isStaff == user.IsStaff {
		return nil
	}
	if err := s.users.SetStaff(ctx, user.ID, isStaff); err != nil {
		return fmt.Errorf("ошибка обновления флага staff: %w", err)
	}
	user.IsStaff = isStaff

	s.logger.Info("Флаг staff обновлён по группам",
		slog.String("user_id", user.ID),
		slog.Bool("is_staff", isStaff),
	)
	return nil
}

// Permissions возвращает codename-ы разрешений пользователя.
// Суперпользователь получает полный список, остальные — разрешения
// своих групп.
func (s *UsersService) Permissions(ctx context.Context, user *model.User) ([]string, error) {
	if s.perms == nil {
		return nil, nil
	}

	var (
		perms []rbac.Permission
		err   error
	)
	if user.IsSuperuser {
		perms, err = s.perms.ListAll(ctx)
	} else {
		perms, err = s.perms.ListForUser(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения разрешений пользователя: %w", err)
	}

	codenames := make([]string, 0, len(perms))
	for _, p := range perms {
		codenames = append(codenames, p.Codename)
	}
	return codenames, nil
}

// RecordLogin фиксирует успешный вход пользователя.
func (s *UsersService) RecordLogin(ctx context.Context, userID string) error {
	if err := s.users.UpdateLastLogin(ctx, userID); err != nil {
		return fmt.Errorf("ошибка фиксации входа: %w", err)
	}
	return nil
}

// EnsureSuperuser назначает суперпользователя при старте процесса.
// Если пользователь с указанным email отсутствует — предзасеивается
// (войдёт позже через Login.gov). Пустой email — no-op.
func (s *UsersService) EnsureSuperuser(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	err := s.users.SetSuperuser(ctx, email)
	if err == nil {
		s.logger.Info("Суперпользователь назначен", slog.String("email", email))
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("ошибка назначения суперпользователя: %w", err)
	}

	user := &model.User{
		Username:    email,
		Email:       email,
		Password:    model.MakeUnusablePassword(),
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("ошибка предзасеивания суперпользователя: %w", err)
	}

	s.logger.Info("Суперпользователь предзасеян",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return nil
}
