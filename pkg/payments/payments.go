// Package payments wraps the Stripe checkout and webhook APIs behind a small
// provider interface so handlers and tests never touch Stripe types directly.
package payments

import (
	"context"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Event types the application reacts to. Anything else is acknowledged and
// dropped.
const EventCheckoutSessionCompleted = "checkout.session.completed"

type CheckoutItem struct {
	Name       string
	UnitAmount int64 // cents
	Quantity   int64
}

type CheckoutParams struct {
	Items         []CheckoutItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
	// CollectShipping adds the free and next-day shipping options and turns
	// on phone number collection.
	CollectShipping bool
}

// CheckoutSession is the subset of a Stripe checkout session the application
// reads.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Metadata        map[string]string
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
}

// Event is a verified webhook event.
type Event struct {
	Type    string
	Session CheckoutSession
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

var _ Provider = (*StripeProvider)(nil)

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

const nextDayShippingCents = 1500

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	for _, item := range params.Items {
		sessionParams.LineItems = append(sessionParams.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}
	if params.CollectShipping {
		sessionParams.PhoneNumberCollection = &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		}
		sessionParams.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			shippingOption("Free shipping", 0),
			shippingOption("Next day delivery", nextDayShippingCents),
		}
	}

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &CheckoutSession{
		ID:       session.ID,
		URL:      session.URL,
		Metadata: session.Metadata,
	}, nil
}

func shippingOption(name string, amountCents int64) *stripe.CheckoutSessionShippingOptionParams {
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripe.String("fixed_amount"),
			DisplayName: stripe.String(name),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(amountCents),
				Currency: stripe.String(string(stripe.CurrencyUSD)),
			},
		},
	}
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	event := &Event{Type: string(stripeEvent.Type)}
	if stripeEvent.Type == EventCheckoutSessionCompleted {
		var session stripe.CheckoutSession
		err = json.Unmarshal(stripeEvent.Data.Raw, &session)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		event.Session = CheckoutSession{
			ID:       session.ID,
			Metadata: session.Metadata,
		}
		if session.PaymentIntent != nil {
			event.Session.PaymentIntentID = session.PaymentIntent.ID
		}
		if session.CustomerDetails != nil {
			event.Session.CustomerEmail = session.CustomerDetails.Email
			event.Session.CustomerName = session.CustomerDetails.Name
			event.Session.CustomerPhone = session.CustomerDetails.Phone
		}
	}
	return event, nil
}
