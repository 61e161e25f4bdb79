package db_test

import (
	"strings"
	"testing"

	"github.com/nyashahama/realyou-backend/internal/db"
)

func TestSchemaDeclaresEveryTable(t *testing.T) {
	schema := db.Schema()
	for _, table := range []string{"leads", "purchases", "stripe_events"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema missing table %s", table)
		}
	}
}

func TestSchemaStatusesMatchConstants(t *testing.T) {
	schema := db.Schema()
	for _, status := range []string{
		db.PurchaseStatusPending,
		db.PurchaseStatusPaid,
		db.PurchaseStatusDelivered,
		db.PurchaseStatusError,
	} {
		if !strings.Contains(schema, "'"+status+"'") {
			t.Errorf("schema CHECK does not allow status %q", status)
		}
	}
}
