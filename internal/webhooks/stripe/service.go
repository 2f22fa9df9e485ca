package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/mercantile/storefront/internal/checkout"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
)

type finalizer interface {
	Finalize(ctx context.Context, providerSessionID string) (*checkout.FinalizeResult, error)
}

type expirer interface {
	Expire(ctx context.Context, providerSessionID string) error
}

type ServiceParams struct {
	Finalizer finalizer
	Checkouts expirer
	Logger    *logger.Logger
}

// Service routes verified Stripe events to checkout finalization.
type Service struct {
	finalizer finalizer
	checkouts expirer
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Finalizer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout finalizer required")
	}
	if params.Checkouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		finalizer: params.Finalizer,
		checkouts: params.Checkouts,
		logg:      logg,
	}, nil
}

// HandleEvent finalizes paid sessions and expires abandoned ones. Unhandled
// event types are acknowledged without effect.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": string(event.Type),
	})

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		if !isPaid(session) {
			s.logg.Info(ctx, "checkout completed but payment still pending")
			return nil
		}
		_, err = s.finalizer.Finalize(ctx, session.ID)
		return err
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.checkouts.Expire(ctx, session.ID)
	default:
		s.logg.Debug(ctx, "stripe event ignored")
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}

func isPaid(session *stripe.CheckoutSession) bool {
	switch session.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return true
	}
	return false
}
