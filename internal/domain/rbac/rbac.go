// Пакет rbac — модель разрешений и маппинг групп пользователя в флаги доступа.
// Разрешения делятся по области действия: глобальные (не привязаны к модели)
// и модельные (привязаны к таблице). Единый аксессор ByScope заменяет
// иерархию менеджеров.
package rbac

// Scope — область действия разрешения.
type Scope string

const (
	// ScopeGlobal — глобальное разрешение, не привязанное к модели.
	ScopeGlobal Scope = "global"
	// ScopeModel — разрешение, привязанное к конкретной модели.
	ScopeModel Scope = "model"
)

// Permission — разрешение с дискриминатором области действия.
type Permission struct {
	// Codename — машиночитаемый код ("view_clamavfilescan")
	Codename string
	// Name — человекочитаемое имя
	Name string
	// Scope — область действия (global или model)
	Scope Scope
	// Model — имя модели для ScopeModel; пустое для ScopeGlobal
	Model string
}

// Группы пользователей TDP.
const (
	GroupOFAAdmin       = "OFA Admin"
	GroupOFASystemAdmin = "OFA System Admin"
	GroupDataAnalyst    = "Data Analyst"
)

// ByScope возвращает разрешения с указанной областью действия.
// Полиморфный аксессор: один фильтр вместо подклассов менеджеров.
func ByScope(perms []Permission, scope Scope) []Permission {
	var result []Permission
	for _, p := range perms {
		if p.Scope == scope {
			result = append(result, p)
		}
	}
	return result
}

// HasPermission проверяет наличие разрешения с указанным codename.
func HasPermission(perms []Permission, codename string) bool {
	for _, p := range perms {
		if p.Codename == codename {
			return true
		}
	}
	return false
}

// IsStaffGroup сообщает, даёт ли группа доступ к служебным endpoints.
func IsStaffGroup(group string) bool {
	switch group {
	case GroupOFAAdmin, GroupOFASystemAdmin:
		return true
	}
	return false
}

// MapGroupsToFlags вычисляет флаги доступа пользователя по его группам.
// Хотя бы одна staff-группа — is_staff. Суперпользователь группами не
// назначается, только предзасеиванием.
func MapGroupsToFlags(groups []string) (isStaff bool) {
	for _, g := range groups {
		if IsStaffGroup(g) {
			return true
		}
	}
	return false
}
