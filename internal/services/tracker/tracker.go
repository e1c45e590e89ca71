// Package tracker содержит логику бизнес-уровня для исторических
// отчётов о потреблении токенов и их стоимости.
package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Repository описывает методы хранилища, используемые отчётами.
type Repository interface {
	ListUsage(ctx context.Context, filter models.UsageFilter) ([]*models.UsageItem, error)
	ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Service строит отчёты о потреблении.
type Service struct {
	repo         Repository
	costPerToken float64
}

// New создает новый экземпляр Service.
func New(repo Repository, costPerToken float64) *Service {
	return &Service{
		repo:         repo,
		costPerToken: costPerToken,
	}
}

// round2 округляет стоимость до двух знаков после запятой.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// price возвращает стоимость потреблённых токенов.
func (s *Service) price(tokens int64) float64 {
	return round2(float64(tokens) * s.costPerToken)
}

// enrich заполняет стоимость в строках отчёта.
func (s *Service) enrich(items []*models.UsageItem) {
	for _, item := range items {
		item.Price = s.price(item.ConsumedTokens)
	}
}

// ReportAll возвращает все записи потребления со сводкой по каждому
// пользователю.
func (s *Service) ReportAll(ctx context.Context, startDate, endDate *time.Time) (*models.Report, error) {
	const op = "tracker.ReportAll"

	items, err := s.repo.ListUsage(ctx, models.UsageFilter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	s.enrich(items)

	byUser := make(map[int64]*models.UserSummary)
	var order []int64
	for _, item := range items {
		summary, ok := byUser[item.UserID]
		if !ok {
			summary = &models.UserSummary{UserID: item.UserID, Username: item.Username}
			byUser[item.UserID] = summary
			order = append(order, item.UserID)
		}
		summary.ConsumedTokens += item.ConsumedTokens
		summary.ConsumedBalance = round2(summary.ConsumedBalance + item.Price)
	}

	summaries := make([]*models.UserSummary, 0, len(order))
	for _, userID := range order {
		summaries = append(summaries, byUser[userID])
	}
	return &models.Report{Historical: items, Summary: summaries}, nil
}

// ReportByUser возвращает записи потребления пользователя со сводкой.
// Для тарифа standard сводка дополняется остатком токенов по всем
// квотам пользователя и его стоимостью.
func (s *Service) ReportByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) (*models.Report, error) {
	const op = "tracker.ReportByUser"

	items, err := s.repo.ListUsage(ctx, models.UsageFilter{
		UserID:    &userID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entitlements, err := s.repo.ListEntitlements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 && len(entitlements) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	s.enrich(items)

	summary := &models.UserSummary{UserID: userID}
	for _, item := range items {
		summary.Username = item.Username
		summary.ConsumedTokens += item.ConsumedTokens
		summary.ConsumedBalance = round2(summary.ConsumedBalance + item.Price)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	summary.Username = user.Username
	if user.Subscription == models.SubscriptionStandard {
		var available int64
		for _, e := range entitlements {
			available += e.AvailableTokens
		}
		availableBalance := s.price(available)
		summary.AvailableTokens = &available
		summary.AvailableBalance = &availableBalance
	}

	return &models.Report{Historical: items, Summary: []*models.UserSummary{summary}}, nil
}

// ReportByService возвращает записи потребления сервиса со сводкой
// без разбивки по пользователям.
func (s *Service) ReportByService(ctx context.Context, serviceID int64, startDate, endDate *time.Time) (*models.Report, error) {
	const op = "tracker.ReportByService"

	items, err := s.repo.ListUsage(ctx, models.UsageFilter{
		ServiceID: &serviceID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	s.enrich(items)

	summary := &models.UserSummary{}
	for _, item := range items {
		summary.ConsumedTokens += item.ConsumedTokens
		summary.ConsumedBalance = round2(summary.ConsumedBalance + item.Price)
	}
	return &models.Report{Historical: items, Summary: []*models.UserSummary{summary}}, nil
}

// ReportByUserService возвращает записи потребления пользователя
// по конкретному сервису со сводкой.
func (s *Service) ReportByUserService(ctx context.Context, userID, serviceID int64, startDate, endDate *time.Time) (*models.Report, error) {
	const op = "tracker.ReportByUserService"

	items, err := s.repo.ListUsage(ctx, models.UsageFilter{
		UserID:    &userID,
		ServiceID: &serviceID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	s.enrich(items)

	summary := &models.UserSummary{UserID: userID}
	for _, item := range items {
		summary.ConsumedTokens += item.ConsumedTokens
		summary.ConsumedBalance = round2(summary.ConsumedBalance + item.Price)
	}
	return &models.Report{Historical: items, Summary: []*models.UserSummary{summary}}, nil
}
