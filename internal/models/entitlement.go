package models

// Entitlement — остаток токенов пользователя для конкретного сервиса.
// Создаётся при регистрации пользователя, списывается при каждом
// успешном запросе для тарифа standard. Баланс никогда не уходит
// в минус: списание выполняется условным UPDATE на уровне хранилища.
type Entitlement struct {
	ID              int64 `json:"id"`
	UserID          int64 `json:"user_id"`
	ServiceID       int64 `json:"service_id"`
	AvailableTokens int64 `json:"available_tokens"`
}
