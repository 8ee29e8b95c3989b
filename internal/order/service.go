package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pronto-core/internal/logger"
	"pronto-core/internal/models"
	"pronto-core/internal/session"
	"pronto-core/internal/workflow"
)

var (
	// ErrSessionNotOpen means orders can no longer join the session.
	ErrSessionNotOpen = errors.New("session is not open for new orders")
	// ErrEmptyOrder means the submission had no items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrInvalidItem means an item had a non-positive quantity or a
	// negative price.
	ErrInvalidItem = errors.New("item quantity must be positive and price non-negative")
)

type DBLayer interface {
	GetOrderByID(id string) (*models.Order, error)
	CreateOrder(order *models.Order, totals models.Totals) error
	GetSessionByID(id string) (*models.Session, error)
	UpdateSessionTotals(sessionID string, totals models.Totals) error
	ApplyOrderTransition(order *models.Order, from workflow.Status, history *models.OrderStatusHistory) (bool, error)
}

type EventPublisher interface {
	Publish(ev models.DomainEvent, roles ...string)
}

type KafkaPublisher interface {
	PublishOrderPlaced(order models.Order) error
	PublishOrderStatusChanged(order models.Order, from, to string) error
}

// Service owns individual order lifecycles: customer submission and the
// role-driven workflow transitions. Session-level money moves live in
// the session service; this one keeps the totals cache in step whenever
// an order joins or drops out of a check.
type Service struct {
	DB      DBLayer
	Events  EventPublisher
	Kafka   KafkaPublisher
	Logger  *logger.Logger
	TaxRate float64
}

func NewService(db DBLayer, events EventPublisher, kafka KafkaPublisher, lg *logger.Logger, taxRate float64) *Service {
	return &Service{DB: db, Events: events, Kafka: kafka, Logger: lg, TaxRate: taxRate}
}

// Place creates a new order on an open session. The order starts in
// status new; the waiter accepts it from there. Totals are refreshed in
// the same transaction that inserts the items.
func (s *Service) Place(sessionID string, req models.PlaceOrderRequest, actor workflow.Actor) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %q has quantity %d: %w", item.Name, item.Quantity, ErrInvalidItem)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("item %q has price %d: %w", item.Name, item.UnitPrice, ErrInvalidItem)
		}
	}

	sess, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionOpen {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.Status, ErrSessionNotOpen)
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		WorkflowStatus: string(workflow.StatusNew),
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, &models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Notes:      item.Notes,
		})
	}

	totals := session.ComputeTotals(append(sess.Orders, order), s.TaxRate, sess.Tip)
	if err := s.DB.CreateOrder(order, totals); err != nil {
		return nil, fmt.Errorf("failed to place order on session %s: %w", sessionID, err)
	}

	s.Logger.LogOrder("PLACE", order.ID, fmt.Sprintf("session %s, %d items", sessionID, len(order.Items)))
	s.Events.Publish(models.DomainEvent{
		Type:      models.EventOrderPlaced,
		SessionID: sessionID,
		OrderID:   order.ID,
	})
	if err := s.Kafka.PublishOrderPlaced(*order); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("order placed event for %s: %v", order.ID, err))
	}

	return order, nil
}

// Get returns an order with its items.
func (s *Service) Get(id string) (*models.Order, error) {
	return s.DB.GetOrderByID(id)
}

// Transition applies one workflow action to an order on behalf of the
// actor. The engine validates the edge and capability; persistence is
// first-wins, and losing the race to an identical action resolves as the
// idempotent no-op rather than an error.
func (s *Service) Transition(orderID string, action workflow.Action, justification string, actor workflow.Actor) (*models.Order, workflow.Result, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, workflow.Result{}, err
	}

	result, err := workflow.Apply(order, workflow.Request{
		Action:        action,
		Justification: justification,
		By:            actor,
	})
	if err != nil {
		return nil, workflow.Result{}, err
	}
	if !result.Changed {
		return order, result, nil
	}

	history := &models.OrderStatusHistory{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		FromStatus:    string(result.From),
		ToStatus:      string(result.To),
		Action:        string(action),
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Justification: justification,
		CreatedAt:     time.Now().UTC(),
	}

	applied, err := s.DB.ApplyOrderTransition(order, result.From, history)
	if err != nil {
		return nil, workflow.Result{}, fmt.Errorf("failed to persist transition on order %s: %w", orderID, err)
	}
	if !applied {
		// a concurrent action moved the order first; re-read and treat
		// an identical outcome as the idempotent no-op
		fresh, err := s.DB.GetOrderByID(orderID)
		if err != nil {
			return nil, workflow.Result{}, err
		}
		freshStatus, _ := workflow.Canonical(fresh.WorkflowStatus)
		if freshStatus == result.To {
			return fresh, workflow.Result{Changed: false, From: freshStatus, To: freshStatus}, nil
		}
		return nil, workflow.Result{}, fmt.Errorf("%w: order %s is now %s", workflow.ErrInvalidTransition, orderID, fresh.WorkflowStatus)
	}

	s.Logger.LogOrder(string(action), order.ID, fmt.Sprintf("%s -> %s by %s", result.From, result.To, actor.Role))
	s.publishTransition(order, result)

	if result.To == workflow.StatusCancelled {
		s.recomputeSessionTotals(order.SessionID)
	}

	return order, result, nil
}

func (s *Service) publishTransition(order *models.Order, result workflow.Result) {
	eventType := models.EventStatusChanged
	if result.To == workflow.StatusCancelled {
		eventType = models.EventOrderCancelled
	}
	s.Events.Publish(models.DomainEvent{
		Type:      eventType,
		SessionID: order.SessionID,
		OrderID:   order.ID,
		Payload: map[string]string{
			"from": string(result.From),
			"to":   string(result.To),
		},
	})
	if err := s.Kafka.PublishOrderStatusChanged(*order, string(result.From), string(result.To)); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("status event for order %s: %v", order.ID, err))
	}
}

// recomputeSessionTotals refreshes the owning session's cached totals
// after a cancellation drops an order out of the subtotal.
func (s *Service) recomputeSessionTotals(sessionID string) {
	sess, err := s.DB.GetSessionByID(sessionID)
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("failed to reload session %s for totals: %v", sessionID, err))
		return
	}
	totals := session.ComputeTotals(sess.Orders, s.TaxRate, sess.Tip)
	if err := s.DB.UpdateSessionTotals(sessionID, totals); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("failed to update totals for session %s: %v", sessionID, err))
	}
}
