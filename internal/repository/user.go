package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

// UserRepository — доступ к таблице users.
type UserRepository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по UUID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail возвращает пользователя по email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByLoginGovUUID возвращает пользователя по UUID провайдера Login.gov.
	GetByLoginGovUUID(ctx context.Context, uuid string) (*model.User, error)
	// UpdateLastLogin фиксирует момент входа пользователя.
	UpdateLastLogin(ctx context.Context, id string) error
	// SetLoginGovUUID привязывает пользователя к учётной записи Login.gov.
	SetLoginGovUUID(ctx context.Context, id, uuid string) error
	// SetSuperuser выставляет флаги суперпользователя по email.
	SetSuperuser(ctx context.Context, email string) error
	// SetStaff выставляет флаг is_staff пользователя.
	SetStaff(ctx context.Context, id string, isStaff bool) error
	// ListGroups возвращает имена групп пользователя.
	ListGroups(ctx context.Context, id string) ([]string, error)
	// AddToGroup включает пользователя в группу по имени.
	AddToGroup(ctx context.Context, id, groupName string) error
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// userColumns — список столбцов для SELECT-запросов.
const userColumns = `id, username, email, first_name, last_name, password,
	is_active, is_staff, is_superuser, login_gov_uuid, date_joined, last_login`

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password,
			is_active, is_staff, is_superuser, login_gov_uuid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, date_joined`

	err := r.db.QueryRow(ctx, query,
		u.Username, u.Email, u.FirstName, u.LastName, u.Password,
		u.IsActive, u.IsStaff, u.IsSuperuser, u.LoginGovUUID,
	).Scan(&u.ID, &u.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь с таким email уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getByField(ctx, "id", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByField(ctx, "email", email)
}

func (r *userRepo) GetByLoginGovUUID(ctx context.Context, uuid string) (*model.User, error) {
	return r.getByField(ctx, "login_gov_uuid", uuid)
}

// getByField возвращает пользователя по значению одного столбца.
func (r *userRepo) getByField(ctx context.Context, field, value string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, field)

	u := &model.User{}
	err := r.db.QueryRow(ctx, query, value).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Password,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.LoginGovUUID, &u.DateJoined, &u.LastLogin,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SetLoginGovUUID(ctx context.Context, id, uuid string) error {
	query := `UPDATE users SET login_gov_uuid = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, uuid)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: учётная запись Login.gov уже привязана к другому пользователю", ErrConflict)
		}
		return fmt.Errorf("ошибка привязки Login.gov UUID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SetSuperuser(ctx context.Context, email string) error {
	query := `
		UPDATE users
		SET is_superuser = TRUE, is_staff = TRUE
		WHERE email = $1`

	tag, err := r.db.Exec(ctx, query, email)
	if err != nil {
		return fmt.Errorf("ошибка назначения суперпользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SetStaff(ctx context.Context, id string, isStaff bool) error {
	query := `UPDATE users SET is_staff = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, isStaff)
	if err != nil {
		return fmt.Errorf("ошибка обновления is_staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) ListGroups(ctx context.Context, id string) ([]string, error) {
	query := `
		SELECT g.name
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.name`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения групп пользователя: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования группы: %w", err)
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

func (r *userRepo) AddToGroup(ctx context.Context, id, groupName string) error {
	query := `
		INSERT INTO user_groups (user_id, group_id)
		SELECT $1, g.id FROM groups g WHERE g.name = $2
		ON CONFLICT DO NOTHING`

	// Повторное включение в группу — no-op (ON CONFLICT DO NOTHING)
	if _, err := r.db.Exec(ctx, query, id, groupName); err != nil {
		return fmt.Errorf("ошибка включения пользователя в группу: %w", err)
	}
	return nil
}
