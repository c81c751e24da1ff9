package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type AlertKind string

const (
	// AlertThreshold is sent when a committed expense brings month spend to the configured share of the budget.
	AlertThreshold AlertKind = "budget.threshold"
	// AlertRejected is sent when an expense was refused because it would exceed the budget.
	AlertRejected AlertKind = "budget.rejected"
)

type Alert struct {
	Kind          AlertKind        `json:"kind"`
	UserId        int              `json:"userId"`
	CategoryId    int              `json:"categoryId"`
	CategoryName  string           `json:"categoryName"`
	Budget        decimal.Decimal  `json:"budget"`
	Spent         decimal.Decimal  `json:"spent"`
	PercentSpent  decimal.Decimal  `json:"percentSpent"`
	TransactionId int              `json:"transactionId,omitempty"`
	WouldBecome   *decimal.Decimal `json:"wouldBecome,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

func (a Alert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close() error
}

// LogPublisher writes alerts to the application log.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, alert Alert) error {
	log.WithFields(log.Fields{
		"kind":         alert.Kind,
		"userId":       alert.UserId,
		"categoryId":   alert.CategoryId,
		"categoryName": alert.CategoryName,
		"budget":       alert.Budget.StringFixed(2),
		"spent":        alert.Spent.StringFixed(2),
	}).Info("Budget alert")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
