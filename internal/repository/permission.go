package repository

import (
	"context"
	"fmt"

	"github.com/George-Hudson/TANF-app/internal/domain/rbac"
)

// PermissionRepository — доступ к таблицам permissions и group_permissions.
type PermissionRepository interface {
	// ListAll возвращает все разрешения.
	ListAll(ctx context.Context) ([]rbac.Permission, error)
	// ListForUser возвращает разрешения пользователя через его группы.
	// Суперпользователь обрабатывается на уровне сервиса, не здесь.
	ListForUser(ctx context.Context, userID string) ([]rbac.Permission, error)
	// ListForGroup возвращает разрешения группы по её имени.
	ListForGroup(ctx context.Context, groupName string) ([]rbac.Permission, error)
}

// permissionRepo — реализация PermissionRepository.
type permissionRepo struct {
	db DBTX
}

// NewPermissionRepository создаёт репозиторий разрешений.
func NewPermissionRepository(db DBTX) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) ListAll(ctx context.Context) ([]rbac.Permission, error) {
	query := `
		SELECT codename, name, scope, model
		FROM permissions
		ORDER BY codename`

	return r.queryPermissions(ctx, query)
}

func (r *permissionRepo) ListForUser(ctx context.Context, userID string) ([]rbac.Permission, error) {
	query := `
		SELECT DISTINCT p.codename, p.name, p.scope, p.model
		FROM permissions p
		JOIN group_permissions gp ON gp.permission_id = p.id
		JOIN user_groups ug ON ug.group_id = gp.group_id
		WHERE ug.user_id = $1
		ORDER BY p.codename`

	return r.queryPermissions(ctx, query, userID)
}

func (r *permissionRepo) ListForGroup(ctx context.Context, groupName string) ([]rbac.Permission, error) {
	query := `
		SELECT p.codename, p.name, p.scope, p.model
		FROM permissions p
		JOIN group_permissions gp ON gp.permission_id = p.id
		JOIN groups g ON g.id = gp.group_id
		WHERE g.name = $1
		ORDER BY p.codename`

	return r.queryPermissions(ctx, query, groupName)
}

// queryPermissions выполняет запрос и сканирует строки разрешений.
func (r *permissionRepo) queryPermissions(ctx context.Context, query string, args ...any) ([]rbac.Permission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения разрешений: %w", err)
	}
	defer rows.Close()

	var result []rbac.Permission
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.Codename, &p.Name, &p.Scope, &p.Model); err != nil {
			return nil, fmt.Errorf("ошибка сканирования разрешения: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
