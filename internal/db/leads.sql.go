package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const leadColumns = `id, email, name, agree_to_emails, plan_at_signup, has_completed_assessment, referral_code, utm_source, utm_medium, utm_campaign, captured_at, tier, access_token, result_snapshot, type_code, narrative, last_completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (Lead, error) {
	var i Lead
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.AgreeToEmails,
		&i.PlanAtSignup,
		&i.HasCompletedAssessment,
		&i.ReferralCode,
		&i.UtmSource,
		&i.UtmMedium,
		&i.UtmCampaign,
		&i.CapturedAt,
		&i.Tier,
		&i.AccessToken,
		&i.ResultSnapshot,
		&i.TypeCode,
		&i.Narrative,
		&i.LastCompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createLead = `-- name: CreateLead :one
INSERT INTO leads (
    email, name, agree_to_emails, plan_at_signup, has_completed_assessment,
    referral_code, utm_source, utm_medium, utm_campaign, captured_at, access_token
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + leadColumns

type CreateLeadParams struct {
	Email                  string         `json:"email"`
	Name                   sql.NullString `json:"name"`
	AgreeToEmails          bool           `json:"agree_to_emails"`
	PlanAtSignup           sql.NullString `json:"plan_at_signup"`
	HasCompletedAssessment bool           `json:"has_completed_assessment"`
	ReferralCode           sql.NullString `json:"referral_code"`
	UtmSource              sql.NullString `json:"utm_source"`
	UtmMedium              sql.NullString `json:"utm_medium"`
	UtmCampaign            sql.NullString `json:"utm_campaign"`
	CapturedAt             sql.NullTime   `json:"captured_at"`
	AccessToken            string         `json:"access_token"`
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	row := q.queryRow(ctx, q.createLeadStmt, createLead,
		arg.Email,
		arg.Name,
		arg.AgreeToEmails,
		arg.PlanAtSignup,
		arg.HasCompletedAssessment,
		arg.ReferralCode,
		arg.UtmSource,
		arg.UtmMedium,
		arg.UtmCampaign,
		arg.CapturedAt,
		arg.AccessToken,
	)
	return scanLead(row)
}

const ensureLead = `-- name: EnsureLead :one
INSERT INTO leads (email, access_token)
VALUES ($1, $2)
ON CONFLICT (email) DO UPDATE SET updated_at = now()
RETURNING ` + leadColumns

type EnsureLeadParams struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

func (q *Queries) EnsureLead(ctx context.Context, arg EnsureLeadParams) (Lead, error) {
	row := q.queryRow(ctx, q.ensureLeadStmt, ensureLead, arg.Email, arg.AccessToken)
	return scanLead(row)
}

const getLeadByAccessToken = `-- name: GetLeadByAccessToken :one
SELECT ` + leadColumns + ` FROM leads WHERE access_token = $1`

func (q *Queries) GetLeadByAccessToken(ctx context.Context, accessToken string) (Lead, error) {
	row := q.queryRow(ctx, q.getLeadByAccessTokenStmt, getLeadByAccessToken, accessToken)
	return scanLead(row)
}

const getLeadByEmail = `-- name: GetLeadByEmail :one
SELECT ` + leadColumns + ` FROM leads WHERE email = $1`

func (q *Queries) GetLeadByEmail(ctx context.Context, email string) (Lead, error) {
	row := q.queryRow(ctx, q.getLeadByEmailStmt, getLeadByEmail, email)
	return scanLead(row)
}

const getLeadByID = `-- name: GetLeadByID :one
SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

func (q *Queries) GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := q.queryRow(ctx, q.getLeadByIDStmt, getLeadByID, id)
	return scanLead(row)
}

const setLeadNarrative = `-- name: SetLeadNarrative :exec
UPDATE leads SET narrative = $2, updated_at = now() WHERE id = $1`

type SetLeadNarrativeParams struct {
	ID        uuid.UUID             `json:"id"`
	Narrative pqtype.NullRawMessage `json:"narrative"`
}

func (q *Queries) SetLeadNarrative(ctx context.Context, arg SetLeadNarrativeParams) error {
	_, err := q.exec(ctx, q.setLeadNarrativeStmt, setLeadNarrative, arg.ID, arg.Narrative)
	return err
}

const setLeadTier = `-- name: SetLeadTier :one
UPDATE leads SET tier = $2, updated_at = now() WHERE id = $1
RETURNING ` + leadColumns

type SetLeadTierParams struct {
	ID   uuid.UUID `json:"id"`
	Tier string    `json:"tier"`
}

func (q *Queries) SetLeadTier(ctx context.Context, arg SetLeadTierParams) (Lead, error) {
	row := q.queryRow(ctx, q.setLeadTierStmt, setLeadTier, arg.ID, arg.Tier)
	return scanLead(row)
}

const upsertLeadSnapshot = `-- name: UpsertLeadSnapshot :one
INSERT INTO leads (
    email, name, access_token, result_snapshot, type_code,
    has_completed_assessment, last_completed_at
) VALUES ($1, $2, $3, $4, $5, TRUE, now())
ON CONFLICT (email) DO UPDATE SET
    name                     = COALESCE(EXCLUDED.name, leads.name),
    result_snapshot          = EXCLUDED.result_snapshot,
    type_code                = EXCLUDED.type_code,
    has_completed_assessment = TRUE,
    last_completed_at        = now(),
    narrative                = NULL,
    updated_at               = now()
RETURNING ` + leadColumns

type UpsertLeadSnapshotParams struct {
	Email          string                `json:"email"`
	Name           sql.NullString        `json:"name"`
	AccessToken    string                `json:"access_token"`
	ResultSnapshot pqtype.NullRawMessage `json:"result_snapshot"`
	TypeCode       sql.NullString        `json:"type_code"`
}

func (q *Queries) UpsertLeadSnapshot(ctx context.Context, arg UpsertLeadSnapshotParams) (Lead, error) {
	row := q.queryRow(ctx, q.upsertLeadSnapshotStmt, upsertLeadSnapshot,
		arg.Email,
		arg.Name,
		arg.AccessToken,
		arg.ResultSnapshot,
		arg.TypeCode,
	)
	return scanLead(row)
}
