package models

import "strings"

// Роли профиля. Код роли определяет набор разрешённых действий.
const (
	// RoleAdministrator — полный доступ: создание, чтение, изменение, удаление.
	RoleAdministrator = "AD"
	// RoleEditor — создание, чтение и изменение без удаления.
	RoleEditor = "ED"
	// RoleViewer — только чтение.
	RoleViewer = "VW"
)

// Статическая таблица роль -> разрешённые действия. Наборы монотонны:
// администратор включает редактора, редактор включает наблюдателя.
var (
	rolesCanCreate = map[string]bool{RoleAdministrator: true, RoleEditor: true}
	rolesCanRead   = map[string]bool{RoleAdministrator: true, RoleEditor: true, RoleViewer: true}
	rolesCanUpdate = map[string]bool{RoleAdministrator: true, RoleEditor: true}
	rolesCanDelete = map[string]bool{RoleAdministrator: true}
)

// UserProfile представляет членство пользователя в клиенте и его роль.
// Пара (пользователь, клиент) уникальна. CustomerID равен nil для
// профиля без привязки к клиенту — такой профиль не имеет доступа
// к фичам и кредитам.
type UserProfile struct {
	ID             int    `json:"id"`                    // Идентификатор профиля
	UserUID        string `json:"user_uid"`              // Пользователь
	CustomerID     *int   `json:"customer_id,omitempty"` // Клиент, nil — без привязки
	AllowedActions string `json:"allowed_actions"`       // Код роли: AD, ED или VW
	FeatureList    string `json:"feature_list"`          // Явно выданные коды фич через запятую
}

// CanCreate сообщает, разрешено ли роли профиля создание объектов.
func (p *UserProfile) CanCreate() bool { return rolesCanCreate[p.AllowedActions] }

// CanRead сообщает, разрешено ли роли профиля чтение объектов.
func (p *UserProfile) CanRead() bool { return rolesCanRead[p.AllowedActions] }

// CanUpdate сообщает, разрешено ли роли профиля изменение объектов.
func (p *UserProfile) CanUpdate() bool { return rolesCanUpdate[p.AllowedActions] }

// CanDelete сообщает, разрешено ли роли профиля удаление объектов.
func (p *UserProfile) CanDelete() bool { return rolesCanDelete[p.AllowedActions] }

// GrantedFeatures возвращает список кодов фич, явно выданных профилю.
// Пустой FeatureList даёт пустой список.
func (p *UserProfile) GrantedFeatures() []string {
	if p.FeatureList == "" {
		return nil
	}
	parts := strings.Split(p.FeatureList, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			result = append(result, code)
		}
	}
	return result
}

// ValidRole проверяет, что код роли известен системе.
func ValidRole(role string) bool {
	return role == RoleAdministrator || role == RoleEditor || role == RoleViewer
}

// DummyProfile используется для приёма данных из JSON-запроса на
// создание профиля. Пользователь ищется по email: если его ещё нет,
// создаётся неактивная учётная запись и отправляется приглашение.
type DummyProfile struct {
	UserEmail      string `json:"user_email" validate:"required,email"`          // Email приглашаемого пользователя
	UserName       string `json:"user_name,omitempty" validate:"omitempty,max=255"` // Имя (для нового пользователя)
	AllowedActions string `json:"allowed_actions" validate:"required,oneof=AD ED VW"` // Код роли
	FeatureList    string `json:"feature_list,omitempty" validate:"omitempty"`   // Коды фич через запятую
}

// DummyProfileUpdate используется для приёма данных из JSON-запроса
// на изменение существующего профиля.
type DummyProfileUpdate struct {
	AllowedActions string `json:"allowed_actions" validate:"required,oneof=AD ED VW"` // Код роли
	FeatureList    string `json:"feature_list,omitempty" validate:"omitempty"`        // Коды фич через запятую
}
