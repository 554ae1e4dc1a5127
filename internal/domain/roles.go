package domain

// UserRole описывает роль пользователя в каталоге.
type UserRole string

const (
	RoleGuest      UserRole = "guest"
	RoleUser       UserRole = "user"
	RoleEditor     UserRole = "editor"
	RoleModerator  UserRole = "moderator"
	RoleSuperAdmin UserRole = "super_admin"
)

// RoleDirectory сопоставляет Telegram ID пользователей с привилегированными ролями.
// Заполняется из конфигурации при старте, скрытого глобального состояния нет.
type RoleDirectory struct {
	superAdmins map[int64]struct{}
	moderators  map[int64]struct{}
	editors     map[int64]struct{}
}

// NewRoleDirectory создаёт справочник ролей из списков ID.
func NewRoleDirectory(superAdmins, moderators, editors []int64) *RoleDirectory {
	d := &RoleDirectory{
		superAdmins: make(map[int64]struct{}, len(superAdmins)),
		moderators:  make(map[int64]struct{}, len(moderators)),
		editors:     make(map[int64]struct{}, len(editors)),
	}
	for _, id := range superAdmins {
		d.superAdmins[id] = struct{}{}
	}
	for _, id := range moderators {
		d.moderators[id] = struct{}{}
	}
	for _, id := range editors {
		d.editors[id] = struct{}{}
	}
	return d
}

// Resolve возвращает роль для Telegram ID. Непривилегированные
// проверенные пользователи получают RoleUser.
func (d *RoleDirectory) Resolve(tgUserID int64) UserRole {
	if _, ok := d.superAdmins[tgUserID]; ok {
		return RoleSuperAdmin
	}
	if _, ok := d.moderators[tgUserID]; ok {
		return RoleModerator
	}
	if _, ok := d.editors[tgUserID]; ok {
		return RoleEditor
	}
	return RoleUser
}

// IsModerator сообщает, может ли пользователь модерировать заявки.
func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator || i.Role == RoleSuperAdmin
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleSuperAdmin
}
