// Package services содержит бизнес-логику работы с оплаченным
// контентом клиентов: регистрацию покупок, разрешение активной
// подписки и вычисление доступных фич по каталогу планов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/plans"
)

// ErrExclusiveConflict возвращается, когда у клиента одновременно
// активны несколько взаимоисключающих подписок. Это нарушение
// целостности данных, оно не исправляется автоматически.
var ErrExclusiveConflict = errors.New("multiple exclusive active signatures")

// PaidContentRepository определяет методы хранилища для записей
// оплаченного контента.
type PaidContentRepository interface {
	// CreatePaidContent добавляет новую запись и возвращает её ID.
	CreatePaidContent(ctx context.Context, content models.PaidContent) (int, error)
	// ListActiveSignatures возвращает активные на момент now подписки клиента.
	ListActiveSignatures(ctx context.Context, customerID int, now time.Time) ([]*models.PaidContent, error)
	// AddCustomerCredits пополняет кредиты клиента.
	AddCustomerCredits(ctx context.Context, customerID, amount int) error
}

// EntitlementService реализует бизнес-логику разрешения прав клиента
// по его покупкам и каталогу планов.
type EntitlementService struct {
	repo    PaidContentRepository
	catalog *plans.Catalog
	log     *slog.Logger
}

// NewEntitlementService создает новый экземпляр EntitlementService.
func NewEntitlementService(repo PaidContentRepository, catalog *plans.Catalog, log *slog.Logger) *EntitlementService {
	return &EntitlementService{
		repo:    repo,
		catalog: catalog,
		log:     log,
	}
}

// RegisterPurchase регистрирует покупку плана клиентом: находит план
// в каталоге, создаёт запись оплаченного контента с датой начала
// "сейчас" и датой истечения по длительности плана. Конфликт
// взаимоисключающих подписок здесь не проверяется, он обнаруживается
// при чтении в GetActiveSignature.
func (s *EntitlementService) RegisterPurchase(ctx context.Context, planKey string, customerID int) (*models.PaidContent, error) {
	const op = "entitlement.RegisterPurchase"

	plan, err := s.catalog.Lookup(planKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startDate := time.Now().UTC()
	content := models.PaidContent{
		CustomerID:  customerID,
		ContentType: plan.Type,
		StripeID:    planKey,
		Value:       plan.Value,
		StartDate:   startDate,
		IsExclusive: plan.SignatureExclusive,
	}
	if plan.DurationDays != nil {
		expiration := startDate.AddDate(0, 0, *plan.DurationDays)
		content.ExpirationDate = &expiration
	}

	id, err := s.repo.CreatePaidContent(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	content.ID = id
	s.log.Info("registered purchase",
		slog.String("plan", planKey), slog.Int("customer_id", customerID), slog.Int("id", id))

	s.grantCredits(ctx, plan, customerID)

	return &content, nil
}

// grantCredits пополняет квоту клиента по позициям плана вида "credit".
// Код позиции кодирует размер квоты: credits_<N>.
func (s *EntitlementService) grantCredits(ctx context.Context, plan *plans.Plan, customerID int) {
	for _, c := range plan.PurchasedContent {
		if c.Type != "credit" {
			continue
		}
		amount, err := strconv.Atoi(strings.TrimPrefix(c.ID, "credits_"))
		if err != nil {
			s.log.Warn("unparsable credit position in plan", slog.String("id", c.ID))
			continue
		}
		if err := s.repo.AddCustomerCredits(ctx, customerID, amount); err != nil {
			s.log.Error("failed to add customer credits", sl.Err(err))
		}
	}
}

// GetActiveSignature возвращает активную подписку клиента. Если
// активных подписок нет, клиенту автоматически регистрируется
// бесплатный план. Если активно больше одной взаимоисключающей
// подписки — это ошибка целостности данных ErrExclusiveConflict.
// При нескольких допустимых кандидатах возвращается подписка
// с самой поздней датой начала.
func (s *EntitlementService) GetActiveSignature(ctx context.Context, customerID int) (*models.PaidContent, error) {
	const op = "entitlement.GetActiveSignature"

	active, err := s.repo.ListActiveSignatures(ctx, customerID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(active) == 0 {
		s.log.Info("customer has no active signature, registering free plan",
			slog.Int("customer_id", customerID))
		content, err := s.RegisterPurchase(ctx, plans.FreePlanKey, customerID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return content, nil
	}

	if len(active) > 1 {
		var exclusive int
		for _, content := range active {
			if content.IsExclusive {
				exclusive++
			}
		}
		if exclusive > 1 {
			return nil, fmt.Errorf("%s: customer %d: %w", op, customerID, ErrExclusiveConflict)
		}
	}

	return active[0], nil
}

// AvailableFeatures возвращает коды фич, открытых активной подпиской
// клиента. Позиции плана, не являющиеся фичами (квоты), исключаются.
func (s *EntitlementService) AvailableFeatures(ctx context.Context, customerID int) ([]string, error) {
	const op = "entitlement.AvailableFeatures"

	signature, err := s.GetActiveSignature(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.catalog.Lookup(signature.StripeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan.Features(), nil
}
