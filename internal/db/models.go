package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Purchase statuses. The column is constrained by a CHECK in schema.sql.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusPaid      = "paid"
	PurchaseStatusDelivered = "delivered"
	PurchaseStatusError     = "error"
)

type Lead struct {
	ID                     uuid.UUID             `json:"id"`
	Email                  string                `json:"email"`
	Name                   sql.NullString        `json:"name"`
	AgreeToEmails          bool                  `json:"agree_to_emails"`
	PlanAtSignup           sql.NullString        `json:"plan_at_signup"`
	HasCompletedAssessment bool                  `json:"has_completed_assessment"`
	ReferralCode           sql.NullString        `json:"referral_code"`
	UtmSource              sql.NullString        `json:"utm_source"`
	UtmMedium              sql.NullString        `json:"utm_medium"`
	UtmCampaign            sql.NullString        `json:"utm_campaign"`
	CapturedAt             sql.NullTime          `json:"captured_at"`
	Tier                   string                `json:"tier"`
	AccessToken            string                `json:"access_token"`
	ResultSnapshot         pqtype.NullRawMessage `json:"result_snapshot"`
	TypeCode               sql.NullString        `json:"type_code"`
	Narrative              pqtype.NullRawMessage `json:"narrative"`
	LastCompletedAt        sql.NullTime          `json:"last_completed_at"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

type Purchase struct {
	ID                    uuid.UUID      `json:"id"`
	LeadID                uuid.UUID      `json:"lead_id"`
	StripeCheckoutSession string         `json:"stripe_checkout_session"`
	Tier                  string         `json:"tier"`
	AmountTotal           int64          `json:"amount_total"`
	Currency              string         `json:"currency"`
	Status                string         `json:"status"`
	ErrorMessage          sql.NullString `json:"error_message"`
	DeliveredAt           sql.NullTime   `json:"delivered_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type StripeEvent struct {
	StripeEventID string          `json:"stripe_event_id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	ProcessedAt   sql.NullTime    `json:"processed_at"`
	Error         sql.NullString  `json:"error"`
	CreatedAt     time.Time       `json:"created_at"`
}
