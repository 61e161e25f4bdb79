package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error)
	CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error)
	EnsureLead(ctx context.Context, arg EnsureLeadParams) (Lead, error)
	GetLeadByAccessToken(ctx context.Context, accessToken string) (Lead, error)
	GetLeadByEmail(ctx context.Context, email string) (Lead, error)
	GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetPurchaseByCheckoutSession(ctx context.Context, stripeCheckoutSession string) (Purchase, error)
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (Purchase, error)
	ListPendingPurchases(ctx context.Context, limit int32) ([]Purchase, error)
	MarkPurchaseDelivered(ctx context.Context, id uuid.UUID) (Purchase, error)
	MarkPurchaseFailed(ctx context.Context, arg MarkPurchaseFailedParams) (Purchase, error)
	MarkStripeEventFailed(ctx context.Context, arg MarkStripeEventFailedParams) error
	MarkStripeEventProcessed(ctx context.Context, stripeEventID string) error
	SetLeadNarrative(ctx context.Context, arg SetLeadNarrativeParams) error
	SetLeadTier(ctx context.Context, arg SetLeadTierParams) (Lead, error)
	UpsertLeadSnapshot(ctx context.Context, arg UpsertLeadSnapshotParams) (Lead, error)
	UpsertStripeEvent(ctx context.Context, arg UpsertStripeEventParams) (StripeEvent, error)
}

var _ Querier = (*Queries)(nil)
