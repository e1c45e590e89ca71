package models

// Identity — набор утверждений аутентифицированного пользователя,
// извлечённый из JWT. Permissions содержит идентификаторы сервисов,
// доступных пользователю на момент выпуска токена.
type Identity struct {
	UserID       int64   `json:"id"`
	Username     string  `json:"username"`
	Role         string  `json:"role"`
	Subscription string  `json:"subscription"`
	Permissions  []int64 `json:"permissions"`
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanUseService проверяет, входит ли сервис в список разрешённых.
func (i *Identity) CanUseService(serviceID int64) bool {
	for _, id := range i.Permissions {
		if id == serviceID {
			return true
		}
	}
	return false
}
