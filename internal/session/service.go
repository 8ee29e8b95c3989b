package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pronto-core/internal/logger"
	"pronto-core/internal/models"
	"pronto-core/internal/payment"
	"pronto-core/internal/workflow"
)

var (
	// ErrTableBusy means the table already has a non-closed session.
	ErrTableBusy = errors.New("table already has an open session")
	// ErrNotPayable means payment was attempted outside awaiting_payment.
	ErrNotPayable = errors.New("session is not awaiting payment")
	// ErrSessionClosed means the session was already paid and archived.
	ErrSessionClosed = errors.New("session is closed")
	// ErrInvalidTip means a negative tip amount or percentage was submitted.
	ErrInvalidTip = errors.New("tip must not be negative")
	// ErrConcurrentUpdate means another writer changed the session between
	// read and guarded update; the caller should re-read and retry.
	ErrConcurrentUpdate = errors.New("session was modified concurrently")
)

type DBLayer interface {
	CreateSession(session *models.Session) error
	GetSessionByID(id string) (*models.Session, error)
	GetOpenSessionByTable(tableNumber int) (*models.Session, error)
	UpdateSessionStatus(session *models.Session, expectStatus ...string) (bool, error)
	FinalizeSessionPayment(session *models.Session) error
	ApplyOrderTransition(order *models.Order, from workflow.Status, history *models.OrderStatusHistory) (bool, error)
}

type EventPublisher interface {
	Publish(ev models.DomainEvent, roles ...string)
}

type KafkaPublisher interface {
	PublishCheckoutRequested(session models.Session) error
	PublishPaymentRecorded(session models.Session) error
}

// Service owns the check lifecycle: opening a table's session, the
// checkout/tip/payment sequence and the totals cache. Each public method
// is one short unit of work against the store.
type Service struct {
	DB       DBLayer
	Events   EventPublisher
	Kafka    KafkaPublisher
	Gateways *payment.Registry
	Logger   *logger.Logger

	TaxRate        float64
	TippingEnabled bool
}

func NewService(db DBLayer, events EventPublisher, kafka KafkaPublisher, gateways *payment.Registry, lg *logger.Logger, taxRate float64, tippingEnabled bool) *Service {
	return &Service{
		DB:             db,
		Events:         events,
		Kafka:          kafka,
		Gateways:       gateways,
		Logger:         lg,
		TaxRate:        taxRate,
		TippingEnabled: tippingEnabled,
	}
}

// Open starts a new check for a table. A table can hold at most one
// non-closed session; the store's partial unique index backs this up
// against races.
func (s *Service) Open(tableNumber int) (*models.Session, error) {
	if existing, err := s.DB.GetOpenSessionByTable(tableNumber); err == nil && existing != nil {
		return existing, fmt.Errorf("table %d: %w", tableNumber, ErrTableBusy)
	}

	session := &models.Session{
		ID:          uuid.NewString(),
		TableNumber: tableNumber,
		Status:      models.SessionOpen,
		OpenedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to open session for table %d: %w", tableNumber, err)
	}

	s.Logger.LogSession("OPEN", session.ID, fmt.Sprintf("table %d", tableNumber))
	return session, nil
}

// Get loads a session with fresh totals.
func (s *Service) Get(id string) (*models.Session, error) {
	session, err := s.DB.GetSessionByID(id)
	if err != nil {
		return nil, err
	}
	s.refreshTotals(session)
	return session, nil
}

// RecomputeTotals recalculates the session's cached totals from its
// orders. Totals are never hand-edited; this is the only writer.
func (s *Service) RecomputeTotals(session *models.Session) models.Totals {
	return ComputeTotals(session.Orders, s.TaxRate, session.Tip)
}

func (s *Service) refreshTotals(session *models.Session) {
	totals := s.RecomputeTotals(session)
	session.Subtotal = totals.Subtotal
	session.Tax = totals.Tax
	session.Tip = totals.Tip
	session.Total = totals.Total
}

// RequestCheckout signals that the table wants to pay. The session moves
// to awaiting_tip when tipping is enabled, otherwise straight to
// awaiting_payment, and every delivered order is marked awaiting
// payment. A duplicate request while already requested is a successful
// no-op: the physical "request check" button gets double-tapped all the
// time.
func (s *Service) RequestCheckout(sessionID string) (*models.Session, error) {
	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.SessionClosed:
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	case models.SessionAwaitingTip, models.SessionAwaitingPayment:
		// already requested; idempotent success
		s.refreshTotals(session)
		return session, nil
	}

	now := time.Now().UTC()
	session.CheckRequestedAt = &now
	if s.TippingEnabled {
		session.Status = models.SessionAwaitingTip
	} else {
		session.Status = models.SessionAwaitingPayment
	}
	s.refreshTotals(session)

	applied, err := s.DB.UpdateSessionStatus(session, models.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to request checkout for session %s: %w", sessionID, err)
	}
	if !applied {
		// another request won the race; surface its result
		return s.Get(sessionID)
	}

	s.markDeliveredOrdersAwaitingPayment(session)

	s.Logger.LogSession("CHECKOUT", session.ID, fmt.Sprintf("table %d, status %s", session.TableNumber, session.Status))
	s.Events.Publish(models.DomainEvent{
		Type:      models.EventCheckoutRequested,
		SessionID: session.ID,
		Payload:   map[string]string{"status": session.Status},
	})
	if err := s.Kafka.PublishCheckoutRequested(*session); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("checkout event for session %s: %v", session.ID, err))
	}

	return session, nil
}

// ApplyTip attaches the tip while the session is open or mid-checkout
// and advances awaiting_tip to awaiting_payment. The tip is a fixed
// amount in cents or a percentage of the subtotal.
func (s *Service) ApplyTip(sessionID string, amount *int64, percentage *float64, actor workflow.Actor) (*models.Session, error) {
	if !actor.Can(workflow.PaymentsTip) {
		return nil, fmt.Errorf("%w: role %q cannot apply tips", workflow.ErrForbidden, actor.Role)
	}

	if amount != nil && *amount < 0 {
		return nil, fmt.Errorf("tip of %d cents: %w", *amount, ErrInvalidTip)
	}
	if percentage != nil && *percentage < 0 {
		return nil, fmt.Errorf("tip of %.1f%%: %w", *percentage, ErrInvalidTip)
	}

	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}

	subtotal := ComputeTotals(session.Orders, s.TaxRate, 0).Subtotal
	switch {
	case amount != nil:
		session.Tip = *amount
	case percentage != nil:
		session.Tip = TipFromPercentage(subtotal, *percentage)
	default:
		session.Tip = 0
	}

	now := time.Now().UTC()
	session.TipConfirmedAt = &now
	from := session.Status
	if session.Status == models.SessionAwaitingTip {
		session.Status = models.SessionAwaitingPayment
	}
	s.refreshTotals(session)

	applied, err := s.DB.UpdateSessionStatus(session, from)
	if err != nil {
		return nil, fmt.Errorf("failed to apply tip to session %s: %w", sessionID, err)
	}
	if !applied {
		// another writer moved the session off `from` before our update
		// matched; the tip was NOT persisted, so this must not look like
		// success
		fresh, err := s.DB.GetSessionByID(sessionID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == models.SessionClosed {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
		}
		return nil, fmt.Errorf("session %s is now %s: %w", sessionID, fresh.Status, ErrConcurrentUpdate)
	}

	s.Logger.LogSession("TIP", session.ID, fmt.Sprintf("tip %d cents", session.Tip))
	s.Events.Publish(models.DomainEvent{
		Type:      models.EventTipApplied,
		SessionID: session.ID,
		Payload:   map[string]string{"tip": fmt.Sprintf("%d", session.Tip)},
	})

	return session, nil
}

// RecordPayment settles the check. It fails with ErrNotPayable unless
// the session is awaiting_payment; on gateway timeout the session is
// left untouched so the cashier can retry. Success closes the session
// and finalizes every constituent order to paid in one transaction.
func (s *Service) RecordPayment(sessionID, method, reference string, actor workflow.Actor) (*models.Session, error) {
	if !actor.Can(workflow.PaymentsProcess) {
		return nil, fmt.Errorf("%w: role %q cannot process payments", workflow.ErrForbidden, actor.Role)
	}

	session, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionAwaitingPayment {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, ErrNotPayable)
	}

	gateway, err := s.Gateways.For(method)
	if err != nil {
		return nil, err
	}

	s.refreshTotals(session)
	providerRef, err := gateway.Charge(session, reference)
	if err != nil {
		// includes payment.ErrExternalTimeout: surfaced as retryable,
		// session stays awaiting_payment
		return nil, fmt.Errorf("payment for session %s: %w", sessionID, err)
	}

	now := time.Now().UTC()
	session.Status = models.SessionClosed
	session.ClosedAt = &now
	session.PaymentMethod = method
	session.PaymentReference = providerRef

	if err := s.DB.FinalizeSessionPayment(session); err != nil {
		return nil, fmt.Errorf("failed to finalize payment for session %s: %w", sessionID, err)
	}

	s.Logger.LogSession("PAYMENT", session.ID, fmt.Sprintf("%s, total %d cents, ref %s", method, session.Total, providerRef))
	s.Events.Publish(models.DomainEvent{
		Type:      models.EventPaymentRecorded,
		SessionID: session.ID,
		Payload: map[string]string{
			"method":    method,
			"reference": providerRef,
			"total":     fmt.Sprintf("%d", session.Total),
		},
	})
	if err := s.Kafka.PublishPaymentRecorded(*session); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("payment event for session %s: %v", session.ID, err))
	}

	return session, nil
}

// markDeliveredOrdersAwaitingPayment runs the implicit delivered ->
// awaiting_payment edge for the whole check as the system actor. Orders
// still in the kitchen keep moving through their own workflow.
func (s *Service) markDeliveredOrdersAwaitingPayment(session *models.Session) {
	for _, order := range session.Orders {
		result, err := workflow.Apply(order, workflow.Request{
			Action: workflow.ActionRequestPayment,
			By:     workflow.SystemActor,
		})
		if err != nil || !result.Changed {
			continue
		}
		history := &models.OrderStatusHistory{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			FromStatus: string(result.From),
			ToStatus:   string(result.To),
			Action:     string(workflow.ActionRequestPayment),
			ActorID:    workflow.SystemActor.ID,
			ActorRole:  workflow.SystemActor.Role,
			CreatedAt:  time.Now().UTC(),
		}
		if _, err := s.DB.ApplyOrderTransition(order, result.From, history); err != nil {
			s.Logger.Error("SESSION", fmt.Sprintf("failed to mark order %s awaiting payment: %v", order.ID, err))
		}
	}
}
