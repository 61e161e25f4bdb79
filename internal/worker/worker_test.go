package worker_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/db"
	"github.com/nyashahama/realyou-backend/internal/email"
	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubQuerier struct {
	db.Querier
	mu        sync.Mutex
	purchases map[uuid.UUID]db.Purchase
	leads     map[uuid.UUID]db.Lead
	pending   []db.Purchase
}

func (q *stubQuerier) GetPurchaseByID(_ context.Context, id uuid.UUID) (db.Purchase, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.purchases[id]
	if !ok {
		return db.Purchase{}, sql.ErrNoRows
	}
	return p, nil
}

func (q *stubQuerier) GetLeadByID(_ context.Context, id uuid.UUID) (db.Lead, error) {
	l, ok := q.leads[id]
	if !ok {
		return db.Lead{}, sql.ErrNoRows
	}
	return l, nil
}

func (q *stubQuerier) ListPendingPurchases(_ context.Context, _ int32) ([]db.Purchase, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending, nil
}

type stubStore struct {
	mu        sync.Mutex
	delivered map[uuid.UUID]*narrative.Narrative
	failed    map[uuid.UUID]string
	err       error
}

func newStubStore() *stubStore {
	return &stubStore{delivered: map[uuid.UUID]*narrative.Narrative{}, failed: map[uuid.UUID]string{}}
}

func (s *stubStore) CompleteDelivery(_ context.Context, purchaseID, _ uuid.UUID, n *narrative.Narrative) (db.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return db.Purchase{}, s.err
	}
	s.delivered[purchaseID] = n
	return db.Purchase{ID: purchaseID, Status: db.PurchaseStatusDelivered}, nil
}

func (s *stubStore) MarkDeliveryFailed(_ context.Context, purchaseID uuid.UUID, msg string) (db.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[purchaseID] = msg
	return db.Purchase{ID: purchaseID, Status: db.PurchaseStatusError}, nil
}

func (s *stubStore) failedMsg(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.failed[id]
	return msg, ok
}

type stubMailer struct {
	email.Sender
	sent []email.ReportReadyParams
	err  error
}

func (m *stubMailer) SendReportReady(_ context.Context, p email.ReportReadyParams) error {
	m.sent = append(m.sent, p)
	return m.err
}

type stubNarrator struct {
	n     narrative.Narrative
	err   error
	calls int
}

func (s *stubNarrator) Narrate(context.Context, scoring.Result) (narrative.Narrative, error) {
	s.calls++
	return s.n, s.err
}

// ─── FIXTURES ─────────────────────────────────────────────────────────────────

func engine(t *testing.T) *scoring.Engine {
	t.Helper()
	c, err := content.Load()
	require.NoError(t, err)
	return c.Engine()
}

func fixture(t *testing.T, leadTier string, snapshot string) (*stubQuerier, db.Purchase, db.Lead) {
	t.Helper()
	lead := db.Lead{
		ID:          uuid.New(),
		Email:       "ada@example.com",
		Name:        sql.NullString{String: "Ada", Valid: true},
		Tier:        leadTier,
		AccessToken: "tok",
	}
	if snapshot != "" {
		lead.ResultSnapshot = pqtype.NullRawMessage{RawMessage: json.RawMessage(snapshot), Valid: true}
	}
	purchase := db.Purchase{ID: uuid.New(), LeadID: lead.ID, Tier: leadTier, Status: db.PurchaseStatusPaid}
	q := &stubQuerier{
		purchases: map[uuid.UUID]db.Purchase{purchase.ID: purchase},
		leads:     map[uuid.UUID]db.Lead{lead.ID: lead},
	}
	return q, purchase, lead
}

const enfpSnapshot = `{"trait_vector":{"EI":4,"SN":2,"TF":-3,"JP":-1},"type_code":"ENFP"}`

// ─── JOB ──────────────────────────────────────────────────────────────────────

func TestJob_PremiumRendersPDFAndStoresNarrative(t *testing.T) {
	q, purchase, _ := fixture(t, "premium", enfpSnapshot)
	st := newStubStore()
	mailer := &stubMailer{}
	narrator := &stubNarrator{n: narrative.Narrative{Story: []string{"s"}, Coach: []string{"c"}, Source: narrative.SourceAnthropic}}

	job := worker.NewJob(q, st, engine(t), narrator, mailer, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))

	require.Contains(t, st.delivered, purchase.ID)
	stored := st.delivered[purchase.ID]
	require.NotNil(t, stored)
	assert.Equal(t, narrative.SourceAnthropic, stored.Source)

	require.Len(t, mailer.sent, 1)
	sent := mailer.sent[0]
	assert.Equal(t, "ada@example.com", sent.To)
	assert.Equal(t, "ENFP", sent.TypeCode)
	assert.Equal(t, "Premium", sent.PlanLabel)
	assert.True(t, bytes.HasPrefix(sent.PDF, []byte("%PDF")))
	assert.Equal(t, "RealYou_Personality_ENFP.pdf", sent.PDFName)
}

func TestJob_NarratorFailureFallsBackToTemplate(t *testing.T) {
	q, purchase, _ := fixture(t, "premium", enfpSnapshot)
	st := newStubStore()
	narrator := &stubNarrator{err: errors.New("provider down")}

	job := worker.NewJob(q, st, engine(t), narrator, &stubMailer{}, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))

	stored := st.delivered[purchase.ID]
	require.NotNil(t, stored)
	assert.Equal(t, narrative.SourceTemplate, stored.Source)
}

func TestJob_ExistingNarrativeIsReused(t *testing.T) {
	q, purchase, lead := fixture(t, "premium", enfpSnapshot)
	lead.Narrative = pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"story":["kept"],"coach":["kept"],"source":"deepseek"}`), Valid: true}
	q.leads[lead.ID] = lead
	st := newStubStore()
	narrator := &stubNarrator{}

	job := worker.NewJob(q, st, engine(t), narrator, &stubMailer{}, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))

	assert.Equal(t, 0, narrator.calls)
	assert.Nil(t, st.delivered[purchase.ID], "nothing new to persist")
}

func TestJob_StandardHasNoPDFOrNarrative(t *testing.T) {
	q, purchase, _ := fixture(t, "standard", enfpSnapshot)
	st := newStubStore()
	mailer := &stubMailer{}
	narrator := &stubNarrator{}

	job := worker.NewJob(q, st, engine(t), narrator, mailer, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))

	assert.Equal(t, 0, narrator.calls)
	require.Len(t, mailer.sent, 1)
	assert.Empty(t, mailer.sent[0].PDF)
	assert.Equal(t, "Standard", mailer.sent[0].PlanLabel)
}

func TestJob_NoSnapshotStillDelivers(t *testing.T) {
	q, purchase, _ := fixture(t, "premium", "")
	st := newStubStore()
	mailer := &stubMailer{}

	job := worker.NewJob(q, st, engine(t), &stubNarrator{}, mailer, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))

	assert.Contains(t, st.delivered, purchase.ID)
	require.Len(t, mailer.sent, 1)
	assert.Empty(t, mailer.sent[0].TypeCode)
	assert.Empty(t, mailer.sent[0].PDF)
}

func TestJob_AlreadyDeliveredIsNoop(t *testing.T) {
	q, purchase, _ := fixture(t, "premium", enfpSnapshot)
	purchase.Status = db.PurchaseStatusDelivered
	q.purchases[purchase.ID] = purchase
	st := newStubStore()
	mailer := &stubMailer{}

	job := worker.NewJob(q, st, engine(t), &stubNarrator{}, mailer, discardLogger())
	require.NoError(t, job.Run(context.Background(), purchase.ID))
	assert.Empty(t, st.delivered)
	assert.Empty(t, mailer.sent)
}

func TestJob_EmailFailureDoesNotFailJob(t *testing.T) {
	q, purchase, _ := fixture(t, "standard", enfpSnapshot)
	job := worker.NewJob(q, newStubStore(), engine(t), &stubNarrator{}, &stubMailer{err: errors.New("smtp")}, discardLogger())
	assert.NoError(t, job.Run(context.Background(), purchase.ID))
}

func TestJob_PersistFailureIsReturned(t *testing.T) {
	q, purchase, _ := fixture(t, "standard", enfpSnapshot)
	st := newStubStore()
	st.err = errors.New("db down")
	mailer := &stubMailer{}

	job := worker.NewJob(q, st, engine(t), &stubNarrator{}, mailer, discardLogger())
	assert.Error(t, job.Run(context.Background(), purchase.ID))
	assert.Empty(t, mailer.sent, "no email before delivery is recorded")
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

type countingJob struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	err   error
	done  chan uuid.UUID
}

func newCountingJob(err error) *countingJob {
	return &countingJob{calls: map[uuid.UUID]int{}, err: err, done: make(chan uuid.UUID, 16)}
}

func (j *countingJob) Run(_ context.Context, id uuid.UUID) error {
	j.mu.Lock()
	j.calls[id]++
	j.mu.Unlock()
	j.done <- id
	return j.err
}

func (j *countingJob) count(id uuid.UUID) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls[id]
}

func waitFor(t *testing.T, ch <-chan uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for run %d of %d", i+1, n)
		}
	}
}

func TestRunner_RetriesThenMarksFailed(t *testing.T) {
	job := newCountingJob(errors.New("boom"))
	st := newStubStore()
	q := &stubQuerier{}
	r := worker.NewRunner(job, st, q, worker.RunnerConfig{
		Workers:      1,
		PollInterval: time.Hour,
		MaxRetries:   3,
		BaseBackoff:  time.Millisecond,
	}, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	id := uuid.New()
	require.NoError(t, r.Enqueue(ctx, id))
	waitFor(t, job.done, 3)

	require.Eventually(t, func() bool {
		_, ok := st.failedMsg(id)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	msg, _ := st.failedMsg(id)
	assert.Equal(t, "boom", msg)
	assert.Equal(t, 3, job.count(id))
}

func TestRunner_PollerPicksUpPendingPurchases(t *testing.T) {
	job := newCountingJob(nil)
	id := uuid.New()
	q := &stubQuerier{pending: []db.Purchase{{ID: id, Status: db.PurchaseStatusPaid}}}
	r := worker.NewRunner(job, newStubStore(), q, worker.RunnerConfig{Workers: 1, PollInterval: time.Hour}, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	waitFor(t, job.done, 1)
	assert.Equal(t, 1, job.count(id))
}

func TestRunner_EnqueueDeduplicatesQueued(t *testing.T) {
	job := newCountingJob(nil)
	r := worker.NewRunner(job, newStubStore(), &stubQuerier{}, worker.RunnerConfig{Workers: 1}, nil, discardLogger())

	// Not started: the first Enqueue fills a slot, the second is a no-op.
	id := uuid.New()
	require.NoError(t, r.Enqueue(context.Background(), id))
	require.NoError(t, r.Enqueue(context.Background(), id))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	waitFor(t, job.done, 1)
	select {
	case <-job.done:
		t.Fatal("purchase ran twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRunner_EnqueueReturnsErrQueueFull(t *testing.T) {
	r := worker.NewRunner(newCountingJob(nil), newStubStore(), &stubQuerier{}, worker.RunnerConfig{Workers: 1}, nil, discardLogger())

	// Buffer is Workers*2.
	require.NoError(t, r.Enqueue(context.Background(), uuid.New()))
	require.NoError(t, r.Enqueue(context.Background(), uuid.New()))
	assert.ErrorIs(t, r.Enqueue(context.Background(), uuid.New()), worker.ErrQueueFull)
}
