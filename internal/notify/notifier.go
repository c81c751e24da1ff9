package notify

import (
	"time"

	"github.com/budgetmate/budgetmate/internal/event_bus"
	"github.com/budgetmate/budgetmate/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// Notifier turns budget events from the bus into alerts. Publishing failures are logged and
// never reach the transaction write that triggered them.
type Notifier struct {
	publisher Publisher
	threshold decimal.Decimal
	clock     utils.Clock
}

// NewNotifier creates a notifier. A threshold of zero disables threshold alerts.
func NewNotifier(publisher Publisher, threshold int, clock utils.Clock) *Notifier {
	return &Notifier{publisher: publisher, threshold: decimal.NewFromInt(int64(threshold)), clock: clock}
}

// Subscribe registers the notifier on the bus and returns a function removing it again.
func (n *Notifier) Subscribe(bus *event_bus.EventBus) func() {
	unsubscribers := []func(){
		event_bus.SubscribeTyped(bus, event_bus.TransactionCreated, n.onTransactionChanged),
		event_bus.SubscribeTyped(bus, event_bus.TransactionUpdated, n.onTransactionChanged),
		event_bus.SubscribeTyped(bus, event_bus.BudgetExceeded, n.onBudgetExceeded),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func (n *Notifier) onTransactionChanged(e event_bus.EventT[event_bus.TransactionChanged]) error {
	figures := e.Data.Budget
	if figures == nil || n.threshold.IsZero() || !figures.Budget.IsPositive() {
		return nil
	}

	percent := figures.Spent.Div(figures.Budget).Mul(hundred)
	if percent.LessThan(n.threshold) {
		return nil
	}

	n.publish(e.Event, Alert{
		Kind:          AlertThreshold,
		UserId:        e.Data.UserId,
		CategoryId:    figures.CategoryId,
		CategoryName:  figures.CategoryName,
		Budget:        figures.Budget,
		Spent:         figures.Spent,
		PercentSpent:  percent.Round(2),
		TransactionId: e.Data.TransactionId,
		Timestamp:     n.clock.Now(),
	})
	return nil
}

func (n *Notifier) onBudgetExceeded(e event_bus.EventT[event_bus.BudgetExceededAttempt]) error {
	attempt := e.Data
	percent := decimal.Zero
	if attempt.Budget.IsPositive() {
		percent = attempt.AlreadySpent.Div(attempt.Budget).Mul(hundred).Round(2)
	}
	wouldBecome := attempt.WouldBecome

	n.publish(e.Event, Alert{
		Kind:         AlertRejected,
		UserId:       attempt.UserId,
		CategoryId:   attempt.CategoryId,
		CategoryName: attempt.CategoryName,
		Budget:       attempt.Budget,
		Spent:        attempt.AlreadySpent,
		PercentSpent: percent,
		WouldBecome:  &wouldBecome,
		Timestamp:    n.clock.Now(),
	})
	return nil
}

func (n *Notifier) publish(e event_bus.Event, alert Alert) {
	started := time.Now()
	if err := n.publisher.Publish(e.Context(), alert); err != nil {
		log.Errorf("failed to publish %s alert for category %d: %v", alert.Kind, alert.CategoryId, err)
		return
	}
	log.Tracef("%s alert for category %d published in %s", alert.Kind, alert.CategoryId, time.Since(started))
}
