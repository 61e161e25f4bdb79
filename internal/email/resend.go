package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "results@realyou.app"
	fromName   string // e.g. "RealYou"
	baseURL    string // frontend base, e.g. "https://realyou.app"
	endpoint   string
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName, baseURL string) Sender {
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// ResultsURL is the link mailed to buyers.
func ResultsURL(baseURL, accessToken string) string {
	return fmt.Sprintf("%s/results/%s", strings.TrimRight(baseURL, "/"), accessToken)
}

// SendReportReady sends the delivery email, attaching the PDF when present.
func (c *resendClient) SendReportReady(ctx context.Context, p ReportReadyParams) error {
	subject := "Your RealYou results are unlocked"
	if p.TypeCode != "" {
		subject = fmt.Sprintf("Your %s results are unlocked", p.TypeCode)
	}

	req := resendRequest{
		To:      []string{p.To},
		Subject: subject,
		HTML:    reportReadyHTML(p, ResultsURL(c.baseURL, p.AccessToken)),
	}
	if len(p.PDF) > 0 {
		name := p.PDFName
		if name == "" {
			name = "RealYou_Report.pdf"
		}
		req.Attachments = []resendAttachment{{
			Filename: name,
			Content:  base64.StdEncoding.EncodeToString(p.PDF),
		}}
	}
	return c.send(ctx, req)
}

// SendReceipt sends the post-payment receipt email.
func (c *resendClient) SendReceipt(ctx context.Context, p ReceiptParams) error {
	return c.send(ctx, resendRequest{
		To:      []string{p.To},
		Subject: "Your payment was received",
		HTML:    receiptHTML(p.Name, p.PlanLabel, FormatAmount(p.AmountCents, p.Currency)),
	})
}

// SendLeadNotification sends a plain-text alert to the admin inbox.
func (c *resendClient) SendLeadNotification(ctx context.Context, p LeadNotificationParams) error {
	return c.send(ctx, resendRequest{
		To:      []string{p.To},
		Subject: "New RealYou lead: " + p.Email,
		Text:    leadNotificationText(p),
	})
}

// FormatAmount renders minor units for display, e.g. 1499 "usd" → "$14.99".
func FormatAmount(cents int64, currency string) string {
	amount := fmt.Sprintf("%.2f", float64(cents)/100)
	switch strings.ToLower(currency) {
	case "", "usd":
		return "$" + amount
	default:
		return amount + " " + strings.ToUpper(currency)
	}
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, reqBody resendRequest) error {
	reqBody.From = fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}

// ─── TEMPLATES ────────────────────────────────────────────────────────────────

func greeting(name string) string {
	if name == "" {
		return "Hi there"
	}
	return "Hi " + html.EscapeString(name)
}

func reportReadyHTML(p ReportReadyParams, resultsURL string) string {
	headline := "Your full results are ready"
	if p.TypeCode != "" {
		headline = fmt.Sprintf("%s · %s", html.EscapeString(p.TypeCode), html.EscapeString(p.Label))
	}
	plan := "your upgrade"
	if p.PlanLabel != "" {
		plan = "the " + html.EscapeString(p.PlanLabel) + " plan"
	}
	attachment := ""
	if len(p.PDF) > 0 {
		attachment = "<p>Your personality report PDF is attached to this email.</p>"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">%s</h2>
  <p>%s,</p>
  <p>Thanks for unlocking %s. Every section your plan includes is now open
  on your results page.</p>
  %s
  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      View Your Results
    </a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">
    Bookmark this link. It is your permanent access to your results.<br>
    If the button above does not work, copy this URL:<br>
    <a href="%s" style="color: #6b7280;">%s</a>
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    RealYou Personality Assessment · One-time purchase · No account required
  </p>
</body>
</html>`, headline, greeting(p.Name), plan, attachment, resultsURL, resultsURL, resultsURL)
}

func receiptHTML(name, planLabel, amount string) string {
	plan := "RealYou"
	if planLabel != "" {
		plan = "RealYou " + html.EscapeString(planLabel)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Payment Confirmed</h2>
  <p>%s,</p>
  <p>We have received your payment of <strong>%s</strong> for %s.
  Your results are being unlocked and you will receive a separate email
  with a link to them shortly.</p>
  <p style="color: #6b7280; font-size: 14px;">
    If you have any questions, reply to this email.
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    RealYou Personality Assessment · One-time purchase · No account required
  </p>
</body>
</html>`, greeting(name), amount, plan)
}

func leadNotificationText(p LeadNotificationParams) string {
	completed := "No"
	if p.HasCompletedAssessment {
		completed = "Yes"
	}
	var b strings.Builder
	b.WriteString("New lead captured:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Plan at signup: %s\n", p.PlanAtSignup)
	fmt.Fprintf(&b, "Completed assessment: %s\n\n", completed)
	b.WriteString("UTM:\n")
	fmt.Fprintf(&b, "Source: %s\n", p.UtmSource)
	fmt.Fprintf(&b, "Medium: %s\n", p.UtmMedium)
	fmt.Fprintf(&b, "Campaign: %s\n\n", p.UtmCampaign)
	fmt.Fprintf(&b, "Referral: %s\n", p.ReferralCode)
	fmt.Fprintf(&b, "Captured at: %s", p.CapturedAt)
	return b.String()
}
