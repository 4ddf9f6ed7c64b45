package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/utils"
)

type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeDeclined  ChargeStatus = "declined"
	ChargeVoided    ChargeStatus = "voided"
)

type ChargeResult struct {
	TransactionID string
	Status        ChargeStatus
}

// PaymentGateway charges tenants for self-service payments.
type PaymentGateway interface {
	Charge(ctx context.Context, amountCents int64, metadata map[string]string) (ChargeResult, error)
	// Void reverses a charge whose payment could not be recorded.
	Void(ctx context.Context, transactionID string) error
}

// SimulatedGateway stands in for a card processor. Every charge succeeds
// unless DeclineAbove is set and the amount exceeds it.
type SimulatedGateway struct {
	DeclineAbove int64

	mu      sync.Mutex
	charges map[string]ChargeStatus
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{charges: map[string]ChargeStatus{}}
}

func (g *SimulatedGateway) Charge(_ context.Context, amountCents int64, metadata map[string]string) (ChargeResult, error) {
	txn := "SIM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	status := ChargeSucceeded
	if g.DeclineAbove > 0 && amountCents > g.DeclineAbove {
		status = ChargeDeclined
	}

	g.mu.Lock()
	g.charges[txn] = status
	g.mu.Unlock()

	utils.Logger.WithFields(logrus.Fields{
		"transaction_id": txn,
		"amount":         utils.FormatCents(amountCents),
		"agreement_id":   metadata["agreement_id"],
		"status":         status,
	}).Info("Simulated gateway charge")
	return ChargeResult{TransactionID: txn, Status: status}, nil
}

func (g *SimulatedGateway) Void(_ context.Context, transactionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.charges[transactionID]; !ok {
		return fmt.Errorf("unknown transaction %s", transactionID)
	}
	g.charges[transactionID] = ChargeVoided
	return nil
}

// Status reports what the simulator recorded for transactionID.
func (g *SimulatedGateway) Status(transactionID string) (ChargeStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.charges[transactionID]
	return s, ok
}
