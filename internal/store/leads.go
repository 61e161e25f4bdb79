package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/sqlc-dev/pqtype"
)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

var (
	// ErrLeadNotFound is returned when no lead matches an e-mail or token.
	ErrLeadNotFound = errors.New("store: lead not found")

	// ErrDuplicateLead is returned by CaptureLead when the e-mail is already
	// on file. Handlers treat it as success.
	ErrDuplicateLead = errors.New("store: lead already captured")

	// ErrSnapshotNotFound is returned when the lead exists but has never saved
	// a result, or the saved blob cannot be read back.
	ErrSnapshotNotFound = errors.New("store: no snapshot found")

	// ErrEmailRequired is returned when the normalized e-mail is empty.
	ErrEmailRequired = errors.New("store: email is required")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// NormalizeEmail trims and lower-cases an address. Every e-mail is normalized
// before it reaches the database so lookups are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewAccessToken returns 32 random bytes, hex encoded. The token is the only
// credential for the results page, so it must be unguessable.
func NewAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("store: generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// ─── LEAD CAPTURE ────────────────────────────────────────────────────────────

// LeadInput is the lead-capture form.
type LeadInput struct {
	Email                  string
	Name                   string
	AgreeToEmails          bool
	PlanAtSignup           string
	HasCompletedAssessment bool
	ReferralCode           string
	UtmSource              string
	UtmMedium              string
	UtmCampaign            string
	CapturedAt             time.Time
}

// CaptureLead inserts a new lead. An e-mail that is already on file returns
// ErrDuplicateLead and leaves the existing row untouched.
func (s *Store) CaptureLead(ctx context.Context, in LeadInput) (db.Lead, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return db.Lead{}, ErrEmailRequired
	}
	token, err := NewAccessToken()
	if err != nil {
		return db.Lead{}, err
	}
	capturedAt := in.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	lead, err := s.q.CreateLead(ctx, db.CreateLeadParams{
		Email:                  email,
		Name:                   nullString(in.Name),
		AgreeToEmails:          in.AgreeToEmails,
		PlanAtSignup:           nullString(in.PlanAtSignup),
		HasCompletedAssessment: in.HasCompletedAssessment,
		ReferralCode:           nullString(in.ReferralCode),
		UtmSource:              nullString(in.UtmSource),
		UtmMedium:              nullString(in.UtmMedium),
		UtmCampaign:            nullString(in.UtmCampaign),
		CapturedAt:             sql.NullTime{Time: capturedAt.UTC(), Valid: true},
		AccessToken:            token,
	})
	if isUniqueViolation(err) {
		return db.Lead{}, ErrDuplicateLead
	}
	if err != nil {
		return db.Lead{}, fmt.Errorf("CaptureLead: %w", err)
	}
	return lead, nil
}

// ─── SNAPSHOTS ───────────────────────────────────────────────────────────────

// SaveSnapshot stores an opaque result blob against an e-mail, creating the
// lead if needed. An existing lead keeps its access token and tier; its name
// is only replaced when name is non-empty. Any stored narrative is cleared
// because it was written for the previous result.
func (s *Store) SaveSnapshot(ctx context.Context, email, name string, snapshot json.RawMessage) (db.Lead, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return db.Lead{}, ErrEmailRequired
	}
	if len(snapshot) == 0 || !json.Valid(snapshot) {
		return db.Lead{}, errors.New("store: snapshot is not valid JSON")
	}
	token, err := NewAccessToken()
	if err != nil {
		return db.Lead{}, err
	}

	var head struct {
		TypeCode string `json:"type_code"`
	}
	_ = json.Unmarshal(snapshot, &head)
	code := scoring.NormalizeType(head.TypeCode)
	if !scoring.ValidType(code) {
		code = ""
	}

	lead, err := s.q.UpsertLeadSnapshot(ctx, db.UpsertLeadSnapshotParams{
		Email:          email,
		Name:           nullString(name),
		AccessToken:    token,
		ResultSnapshot: pqtype.NullRawMessage{RawMessage: snapshot, Valid: true},
		TypeCode:       nullString(code),
	})
	if err != nil {
		return db.Lead{}, fmt.Errorf("SaveSnapshot: %w", err)
	}
	return lead, nil
}

// Snapshot is what recovery hands back to the client.
type Snapshot struct {
	Email           string          `json:"email"`
	Name            string          `json:"name,omitempty"`
	ResultSnapshot  json.RawMessage `json:"result_snapshot"`
	LastCompletedAt *time.Time      `json:"last_completed_at,omitempty"`
}

// RecoverSnapshot returns the last saved result for an e-mail.
func (s *Store) RecoverSnapshot(ctx context.Context, email string) (Snapshot, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Snapshot{}, ErrEmailRequired
	}
	lead, err := s.q.GetLeadByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("RecoverSnapshot: %w", err)
	}
	if !lead.ResultSnapshot.Valid || len(lead.ResultSnapshot.RawMessage) == 0 {
		return Snapshot{}, ErrSnapshotNotFound
	}

	snap := Snapshot{
		Email:          lead.Email,
		Name:           lead.Name.String,
		ResultSnapshot: lead.ResultSnapshot.RawMessage,
	}
	if lead.LastCompletedAt.Valid {
		t := lead.LastCompletedAt.Time
		snap.LastCompletedAt = &t
	}
	return snap, nil
}

// LeadByToken resolves a results-page access token.
func (s *Store) LeadByToken(ctx context.Context, token string) (db.Lead, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return db.Lead{}, ErrLeadNotFound
	}
	lead, err := s.q.GetLeadByAccessToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Lead{}, ErrLeadNotFound
	}
	if err != nil {
		return db.Lead{}, fmt.Errorf("LeadByToken: %w", err)
	}
	return lead, nil
}

// ─── DECODING ────────────────────────────────────────────────────────────────

// SavedResult is the part of a snapshot the server trusts. The profile text
// is always rebuilt from the engine's tables, never read back from the blob.
type SavedResult struct {
	TraitVector scoring.TraitVector `json:"trait_vector"`
	TypeCode    string              `json:"type_code"`
}

// SavedResultOf decodes the lead's snapshot. A snapshot without a valid type
// code falls back to the code implied by the trait vector.
func SavedResultOf(lead db.Lead) (SavedResult, error) {
	if !lead.ResultSnapshot.Valid || len(lead.ResultSnapshot.RawMessage) == 0 {
		return SavedResult{}, ErrSnapshotNotFound
	}
	var saved SavedResult
	if err := json.Unmarshal(lead.ResultSnapshot.RawMessage, &saved); err != nil {
		return SavedResult{}, fmt.Errorf("%w: %v", ErrSnapshotNotFound, err)
	}
	saved.TypeCode = scoring.NormalizeType(saved.TypeCode)
	if !scoring.ValidType(saved.TypeCode) {
		saved.TypeCode = saved.TraitVector.TypeCode()
	}
	return saved, nil
}

// Result rebuilds the full result against e's profile table.
func (s SavedResult) Result(e *scoring.Engine) scoring.Result {
	return scoring.Result{
		TraitVector: s.TraitVector,
		TypeCode:    s.TypeCode,
		Profile:     e.Profile(s.TypeCode, s.TraitVector),
	}
}

// NarrativeOf decodes the lead's stored deep dive. It returns nil when none
// has been generated yet.
func NarrativeOf(lead db.Lead) *narrative.Narrative {
	if !lead.Narrative.Valid || len(lead.Narrative.RawMessage) == 0 {
		return nil
	}
	var n narrative.Narrative
	if err := json.Unmarshal(lead.Narrative.RawMessage, &n); err != nil || n.Empty() {
		return nil
	}
	return &n
}
