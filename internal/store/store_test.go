package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/store"
	"github.com/nyashahama/realyou-backend/internal/tier"
	"github.com/sqlc-dev/pqtype"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

// openTestDB returns a migrated *sql.DB from DATABASE_URL. Skips if the env
// var is not set so the suite still passes without a Postgres instance.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping store integration tests")
	}
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if err := pool.PingContext(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("ping: %v", err)
	}
	if err := db.Migrate(context.Background(), pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testEmail returns an address unique to the running test and deletes the
// lead (and, by cascade, its purchases) afterwards.
func testEmail(t *testing.T, pool *sql.DB) string {
	t.Helper()
	email := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_")) + "_" + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() {
		_, _ = pool.ExecContext(context.Background(), "DELETE FROM leads WHERE email=$1", email)
	})
	return email
}

// ─── SaveSnapshot ─────────────────────────────────────────────────────────────

func TestSaveSnapshot_UpsertKeepsTokenAndTier(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	q := db.New(pool)
	st := store.New(pool, q)
	email := testEmail(t, pool)

	first, err := st.SaveSnapshot(ctx, email, "Ada", json.RawMessage(`{"type_code":"INTJ"}`))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := q.SetLeadTier(ctx, db.SetLeadTierParams{ID: first.ID, Tier: "premium"}); err != nil {
		t.Fatalf("set tier: %v", err)
	}
	if err := q.SetLeadNarrative(ctx, db.SetLeadNarrativeParams{
		ID:        first.ID,
		Narrative: pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"story":["old"]}`), Valid: true},
	}); err != nil {
		t.Fatalf("set narrative: %v", err)
	}

	second, err := st.SaveSnapshot(ctx, strings.ToUpper(email), "", json.RawMessage(`{"type_code":"ENFP"}`))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.ID != first.ID || second.AccessToken != first.AccessToken {
		t.Error("upsert must keep the lead id and access token")
	}
	if second.Tier != "premium" {
		t.Errorf("tier: got %s", second.Tier)
	}
	if second.Name.String != "Ada" {
		t.Errorf("empty name must not clear the stored one, got %q", second.Name.String)
	}
	if second.TypeCode.String != "ENFP" {
		t.Errorf("type code: got %q", second.TypeCode.String)
	}
	if second.Narrative.Valid {
		t.Error("a new snapshot must clear the old narrative")
	}
}

// ─── CaptureLead ──────────────────────────────────────────────────────────────

func TestCaptureLead_SecondCaptureIsDuplicate(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	st := store.New(pool, db.New(pool))
	email := testEmail(t, pool)

	if _, err := st.CaptureLead(ctx, store.LeadInput{Email: email, Name: "Ada"}); err != nil {
		t.Fatalf("first capture: %v", err)
	}
	_, err := st.CaptureLead(ctx, store.LeadInput{Email: email})
	if !errors.Is(err, store.ErrDuplicateLead) {
		t.Errorf("expected ErrDuplicateLead, got %v", err)
	}
}

// ─── ApplyPurchase ────────────────────────────────────────────────────────────

func TestApplyPurchase_CreatesLeadAndUpgrades(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	st := store.New(pool, db.New(pool))
	email := testEmail(t, pool)

	applied, err := st.ApplyPurchase(ctx, store.PurchaseInput{
		CheckoutSession: "cs_test_" + uuid.NewString(),
		Email:           email,
		Tier:            tier.Standard,
		AmountTotal:     699,
		Currency:        "USD",
	})
	if err != nil {
		t.Fatalf("ApplyPurchase: %v", err)
	}
	if !applied.Upgraded || applied.Lead.Tier != "standard" {
		t.Errorf("expected upgrade to standard, got %+v", applied.Lead.Tier)
	}
	if applied.Purchase.Status != db.PurchaseStatusPaid || applied.Purchase.Currency != "usd" {
		t.Errorf("unexpected purchase: %+v", applied.Purchase)
	}
}

func TestApplyPurchase_NeverDowngrades(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	st := store.New(pool, db.New(pool))
	email := testEmail(t, pool)

	if _, err := st.ApplyPurchase(ctx, store.PurchaseInput{
		CheckoutSession: "cs_test_" + uuid.NewString(), Email: email, Tier: tier.Premium, AmountTotal: 1499,
	}); err != nil {
		t.Fatalf("premium: %v", err)
	}
	applied, err := st.ApplyPurchase(ctx, store.PurchaseInput{
		CheckoutSession: "cs_test_" + uuid.NewString(), Email: email, Tier: tier.Standard, AmountTotal: 699,
	})
	if err != nil {
		t.Fatalf("standard: %v", err)
	}
	if applied.Upgraded || applied.Lead.Tier != "premium" {
		t.Errorf("expected premium to be kept, got %s (upgraded=%v)", applied.Lead.Tier, applied.Upgraded)
	}
}

func TestApplyPurchase_ReplayReturnsErrAlreadyRecorded(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	st := store.New(pool, db.New(pool))
	email := testEmail(t, pool)

	in := store.PurchaseInput{CheckoutSession: "cs_test_" + uuid.NewString(), Email: email, Tier: tier.Premium, AmountTotal: 1499}
	first, err := st.ApplyPurchase(ctx, in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := st.ApplyPurchase(ctx, in)
	if !errors.Is(err, store.ErrPurchaseAlreadyRecorded) {
		t.Fatalf("expected ErrPurchaseAlreadyRecorded, got %v", err)
	}
	if second.Purchase.ID != first.Purchase.ID {
		t.Error("replay should return the existing purchase")
	}
}

func TestApplyPurchase_RejectsFreeTier(t *testing.T) {
	st := store.New(nil, newStubQuerier())
	_, err := st.ApplyPurchase(context.Background(), store.PurchaseInput{
		CheckoutSession: "cs_test", Email: "ada@example.com", Tier: tier.Free,
	})
	if err == nil {
		t.Error("expected an error for a free purchase")
	}
}

// ─── Delivery ─────────────────────────────────────────────────────────────────

func TestCompleteDelivery_StoresNarrative(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	q := db.New(pool)
	st := store.New(pool, q)
	email := testEmail(t, pool)

	applied, err := st.ApplyPurchase(ctx, store.PurchaseInput{
		CheckoutSession: "cs_test_" + uuid.NewString(), Email: email, Tier: tier.Premium, AmountTotal: 1499,
	})
	if err != nil {
		t.Fatalf("ApplyPurchase: %v", err)
	}

	n := &narrative.Narrative{Story: []string{"story"}, Coach: []string{"coach"}, Source: narrative.SourceTemplate}
	delivered, err := st.CompleteDelivery(ctx, applied.Purchase.ID, applied.Lead.ID, n)
	if err != nil {
		t.Fatalf("CompleteDelivery: %v", err)
	}
	if delivered.Status != db.PurchaseStatusDelivered || !delivered.DeliveredAt.Valid {
		t.Errorf("unexpected purchase: %+v", delivered)
	}

	lead, err := q.GetLeadByID(ctx, applied.Lead.ID)
	if err != nil {
		t.Fatalf("GetLeadByID: %v", err)
	}
	if got := store.NarrativeOf(lead); got == nil || got.Story[0] != "story" {
		t.Errorf("narrative not stored: %+v", got)
	}
}

func TestMarkDeliveryFailed(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()
	q := db.New(pool)
	st := store.New(pool, q)
	email := testEmail(t, pool)

	applied, err := st.ApplyPurchase(ctx, store.PurchaseInput{
		CheckoutSession: "cs_test_" + uuid.NewString(), Email: email, Tier: tier.Standard, AmountTotal: 699,
	})
	if err != nil {
		t.Fatalf("ApplyPurchase: %v", err)
	}
	failed, err := st.MarkDeliveryFailed(ctx, applied.Purchase.ID, "smtp down")
	if err != nil {
		t.Fatalf("MarkDeliveryFailed: %v", err)
	}
	if failed.Status != db.PurchaseStatusError || failed.ErrorMessage.String != "smtp down" {
		t.Errorf("unexpected purchase: %+v", failed)
	}

	pending, err := q.ListPendingPurchases(ctx, 100)
	if err != nil {
		t.Fatalf("ListPendingPurchases: %v", err)
	}
	for _, p := range pending {
		if p.ID == applied.Purchase.ID {
			t.Error("failed purchase must not be listed as pending")
		}
	}
}
