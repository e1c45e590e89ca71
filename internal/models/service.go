package models

import "time"

// Service представляет зарегистрированную возможность шлюза
// (определение языка, перевод и т.п.).
type Service struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Family      string    `json:"family"`
	IsActive    bool      `json:"is_active"`
	CreatedDate time.Time `json:"created_date"`
}

// CreateServiceRequest используется для приёма данных создания
// и обновления сервиса администратором.
type CreateServiceRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Family   string `json:"family" validate:"required,max=100"`
	IsActive bool   `json:"is_active"`
}
