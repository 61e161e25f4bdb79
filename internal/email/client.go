// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import (
	"context"
	"log/slog"
)

// ReportReadyParams holds the data needed to send the results delivery email.
type ReportReadyParams struct {
	To          string // recipient email address
	Name        string // used in the greeting; may be empty
	TypeCode    string // e.g. "ENFP"; may be empty when no snapshot is saved
	Label       string // profile label, e.g. "The Campaigner"
	PlanLabel   string // "Standard" or "Premium"
	AccessToken string // opaque token, inserted into the results URL

	// PDF is attached when non-empty (premium deliveries).
	PDF     []byte
	PDFName string
}

// ReceiptParams holds the data for the post-payment receipt email.
type ReceiptParams struct {
	To          string
	Name        string
	PlanLabel   string
	AmountCents int64  // e.g. 1499 for $14.99
	Currency    string // e.g. "usd"
}

// LeadNotificationParams is the admin alert for a newly captured lead.
type LeadNotificationParams struct {
	To                     string // admin inbox
	Name                   string
	Email                  string
	PlanAtSignup           string
	HasCompletedAssessment bool
	UtmSource              string
	UtmMedium              string
	UtmCampaign            string
	ReferralCode           string
	CapturedAt             string // RFC 3339
}

// Sender is the interface the worker and handlers use to send email.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	// SendReportReady sends the "your results are unlocked" email with the
	// access link. Called by the worker once a purchase is delivered.
	SendReportReady(ctx context.Context, p ReportReadyParams) error

	// SendReceipt sends the payment receipt. Called by the webhook handler
	// immediately after payment confirmation, before delivery runs.
	SendReceipt(ctx context.Context, p ReceiptParams) error

	// SendLeadNotification alerts the admin inbox about a new lead.
	SendLeadNotification(ctx context.Context, p LeadNotificationParams) error
}

// logSender is used when no Resend key is configured. It only logs.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that writes each message to the log instead
// of sending it. Used in development.
func NewLogSender(logger *slog.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) SendReportReady(_ context.Context, p ReportReadyParams) error {
	s.logger.Info("email: report ready (not sent)", "to", p.To, "type_code", p.TypeCode, "pdf_bytes", len(p.PDF))
	return nil
}

func (s *logSender) SendReceipt(_ context.Context, p ReceiptParams) error {
	s.logger.Info("email: receipt (not sent)", "to", p.To, "amount_cents", p.AmountCents)
	return nil
}

func (s *logSender) SendLeadNotification(_ context.Context, p LeadNotificationParams) error {
	s.logger.Info("email: lead notification (not sent)", "lead", p.Email)
	return nil
}
