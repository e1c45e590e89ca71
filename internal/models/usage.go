package models

import "time"

// UsageRecord — неизменяемый факт потребления токенов. Записи только
// добавляются, никогда не изменяются и не удаляются.
type UsageRecord struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ServiceID      int64     `json:"service_id"`
	ConsumedTokens int64     `json:"consumed_tokens"`
	InsertionDate  time.Time `json:"insertion_date"`
}

// UsageItem — строка исторического отчёта: запись потребления,
// обогащённая именем пользователя, именем сервиса и стоимостью.
type UsageItem struct {
	UsageRecord
	Username    string  `json:"username"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`
}

// UsageFilter — параметры выборки записей потребления. Нулевые
// указатели означают отсутствие фильтра. Даты включительны и
// сравниваются с точностью до дня.
type UsageFilter struct {
	UserID    *int64
	ServiceID *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// UserSummary — агрегат потребления по пользователю. Доступные токены
// и баланс заполняются только для тарифа standard.
type UserSummary struct {
	UserID           int64    `json:"user_id,omitempty"`
	Username         string   `json:"username,omitempty"`
	ConsumedTokens   int64    `json:"consumed_tokens"`
	ConsumedBalance  float64  `json:"consumed_balance"`
	AvailableTokens  *int64   `json:"available_tokens,omitempty"`
	AvailableBalance *float64 `json:"available_balance,omitempty"`
}

// Report — ответ исторических отчётов: детализация плюс сводка.
type Report struct {
	Historical []*UsageItem   `json:"historical"`
	Summary    []*UserSummary `json:"summary"`
}

// UsageEvent публикуется в очередь после фиксации потребления,
// для асинхронных потребителей биллинга.
type UsageEvent struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	ServiceID      int64     `json:"service_id"`
	ConsumedTokens int64     `json:"consumed_tokens"`
	Timestamp      time.Time `json:"timestamp"`
}
