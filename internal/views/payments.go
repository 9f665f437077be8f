package views

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/session"
)

const (
	pathPaymentInitiate = "/payment/initiate/"
	pathPaymentHistory  = "/payment/history/"
)

// Payments covers monetary donations
type Payments struct {
	deps
	items *Collection[model.Payment]
}

// NewPayments creates an empty payment view
func NewPayments(client *apiclient.Client, sess *session.Manager, logger *zap.Logger) *Payments {
	return &Payments{
		deps:  newDeps(client, sess, logger),
		items: NewCollection(func(p model.Payment) int64 { return p.ID }),
	}
}

// Items returns the local copy of the payment history
func (v *Payments) Items() []model.Payment { return v.items.Items() }

// Initiate starts a payment and returns the gateway session. Following the
// gateway URL is up to the caller.
func (v *Payments) Initiate(ctx context.Context, amount string) (*model.PaymentSession, error) {
	if _, err := v.currentUser("donate money"); err != nil {
		return nil, err
	}
	if n, err := strconv.ParseFloat(amount, 64); err != nil || n <= 0 {
		return nil, &Error{Action: "donate money", Message: MsgInvalidAmount, Err: errors.New("invalid amount")}
	}
	var ps model.PaymentSession
	if err := v.client.Post(ctx, pathPaymentInitiate, model.PaymentRequest{Amount: amount}, &ps); err != nil {
		return nil, v.fail("donate money", err)
	}
	return &ps, nil
}

// History loads the current user's payments
func (v *Payments) History(ctx context.Context) error {
	if _, err := v.currentUser("payment history"); err != nil {
		return err
	}
	var payments []model.Payment
	if err := v.client.Get(ctx, pathPaymentHistory, &payments); err != nil {
		return v.fail("payment history", err)
	}
	v.items.Replace(payments)
	return nil
}
