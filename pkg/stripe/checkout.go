package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutLine is one priced line sent to the hosted checkout page.
type CheckoutLine struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

// CheckoutSessionInput describes the hosted checkout to create.
type CheckoutSessionInput struct {
	ClientReferenceID string
	Lines             []CheckoutLine
	Metadata          map[string]string
}

// CheckoutSession is the subset of the provider session callers need.
type CheckoutSession struct {
	ID  string
	URL string
}

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type legacySessionCreator struct{}

func (legacySessionCreator) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// CreateCheckoutSession opens a payment-mode hosted checkout for the given lines.
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	if c == nil || c.sessions == nil {
		return nil, errors.New("stripe client not initialized")
	}
	params, err := c.checkoutParams(in)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	created, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

func (c *Client) checkoutParams(in CheckoutSessionInput) (*stripe.CheckoutSessionParams, error) {
	if len(in.Lines) == 0 {
		return nil, errors.New("checkout requires at least one line")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	if in.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(in.ClientReferenceID)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	for _, line := range in.Lines {
		if line.Quantity < 1 || line.UnitAmountCents < 0 {
			return nil, fmt.Errorf("invalid checkout line %q", line.Name)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(line.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.Currency()),
				UnitAmount: stripe.Int64(line.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}
	return params, nil
}
