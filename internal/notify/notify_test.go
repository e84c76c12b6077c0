package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type recordingAdmin struct {
	sent   []string
	err    error
	failOn int // 1-based call that fails; 0 disables
	calls  int
}

func (r *recordingAdmin) Notify(ctx context.Context, text string) error {
	r.calls++
	if r.err != nil && (r.failOn == 0 || r.failOn == r.calls) {
		return r.err
	}
	r.sent = append(r.sent, text)
	return nil
}

type fakeLeadStore struct {
	leads     []models.Contract
	completed []models.Contract
	leadsErr  error
	markErr   error
	marked    []uint
}

func (f *fakeLeadStore) PendingLeadsOlderThan(ctx context.Context, hours int) ([]models.Contract, error) {
	return f.leads, f.leadsErr
}

func (f *fakeLeadStore) CompletedUnreported(ctx context.Context) ([]models.Contract, error) {
	return f.completed, nil
}

func (f *fakeLeadStore) MarkReportSent(ctx context.Context, contractID uint) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, contractID)
	return nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	s, err := store.New(store.Opts{DB: gdb, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return s
}

func seedContract(t *testing.T, s *store.Store, clientName, description, status string, createdAt time.Time) models.Contract {
	t.Helper()
	client := models.Client{Name: clientName, CreatedAt: createdAt}
	if err := s.DB().Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	c := models.Contract{
		ClientID:    client.ID,
		ClientName:  clientName,
		Description: description,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := s.DB().Create(&c).Error; err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return c
}

func newTestNotifier(t *testing.T, ls LeadStore, admin AdminNotifier) *Notifier {
	t.Helper()
	ids := 0
	n, err := New(Opts{
		Store:          ls,
		Admin:          admin,
		StaleLeadHours: 48,
		ReportBaseURL:  "https://reports.example.com/r/",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:            func() time.Time { return now },
		NewID: func() string {
			ids++
			return "rpt-" + string(rune('0'+ids))
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{Admin: &recordingAdmin{}}); err == nil {
		t.Error("expected error for missing store")
	}
	if _, err := New(Opts{Store: &fakeLeadStore{}}); err == nil {
		t.Error("expected error for missing admin notifier")
	}
	n, err := New(Opts{Store: &fakeLeadStore{}, Admin: &recordingAdmin{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.staleLeadHours != 48 {
		t.Errorf("staleLeadHours = %d, want 48 (default)", n.staleLeadHours)
	}
	if n.newID() == "" {
		t.Error("default report id generator returned empty id")
	}
}

// ---------------------------------------------------------------------------
// Stale leads
// ---------------------------------------------------------------------------

func TestStaleLeads_AggregatesOldLeadsOnly(t *testing.T) {
	s := openTestStore(t)
	seedContract(t, s, "Acme", "Handover", models.ContractPending, now.Add(-72*time.Hour))
	seedContract(t, s, "Birch", "Move-out", models.ContractPending, now.Add(-60*time.Hour))
	seedContract(t, s, "Cedar", "Defects", models.ContractPending, now.Add(-49*time.Hour))
	seedContract(t, s, "Dune", "Fresh lead", models.ContractPending, now.Add(-10*time.Hour))
	seedContract(t, s, "Elm", "Old but active", models.ContractInProgress, now.Add(-100*time.Hour))

	admin := &recordingAdmin{}
	n := newTestNotifier(t, s, admin)

	count, err := n.StaleLeads(context.Background())
	if err != nil {
		t.Fatalf("StaleLeads: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(admin.sent) != 1 {
		t.Fatalf("sent %d messages, want exactly 1", len(admin.sent))
	}
	msg := admin.sent[0]
	if !strings.HasPrefix(msg, "ALERT: 3 leads pending for more than 48 hours:\n\n") {
		t.Errorf("message header = %q", msg)
	}
	for _, name := range []string{"- Acme: Handover (since ", "- Birch: Move-out", "- Cedar: Defects"} {
		if !strings.Contains(msg, name) {
			t.Errorf("message missing %q:\n%s", name, msg)
		}
	}
	for _, name := range []string{"Dune", "Elm"} {
		if strings.Contains(msg, name) {
			t.Errorf("message should not mention %s:\n%s", name, msg)
		}
	}
}

func TestStaleLeads_NothingToSend(t *testing.T) {
	s := openTestStore(t)
	seedContract(t, s, "Dune", "Fresh lead", models.ContractPending, now.Add(-10*time.Hour))

	admin := &recordingAdmin{}
	n := newTestNotifier(t, s, admin)

	count, err := n.StaleLeads(context.Background())
	if err != nil {
		t.Fatalf("StaleLeads: %v", err)
	}
	if count != 0 || admin.calls != 0 {
		t.Errorf("count = %d, calls = %d, want 0 and 0", count, admin.calls)
	}
}

func TestStaleLeads_RerunResends(t *testing.T) {
	s := openTestStore(t)
	seedContract(t, s, "Acme", "Handover", models.ContractPending, now.Add(-72*time.Hour))
	admin := &recordingAdmin{}
	n := newTestNotifier(t, s, admin)

	for i := 0; i < 2; i++ {
		if _, err := n.StaleLeads(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(admin.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(admin.sent))
	}
}

func TestStaleLeads_StoreError(t *testing.T) {
	admin := &recordingAdmin{}
	n := newTestNotifier(t, &fakeLeadStore{leadsErr: errors.New("connection refused")}, admin)

	_, err := n.StaleLeads(context.Background())
	if err == nil || !strings.Contains(err.Error(), "notify: stale leads") {
		t.Errorf("err = %v", err)
	}
	if admin.calls != 0 {
		t.Errorf("calls = %d, want 0", admin.calls)
	}
}

func TestStaleLeads_NotifyError(t *testing.T) {
	ls := &fakeLeadStore{leads: []models.Contract{{ID: 1, ClientName: "Acme", CreatedAt: now}}}
	n := newTestNotifier(t, ls, &recordingAdmin{err: errors.New("gateway down")})

	if _, err := n.StaleLeads(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStaleLeadMessage_Format(t *testing.T) {
	leads := []models.Contract{
		{ClientName: "Acme", Description: "Handover", CreatedAt: time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)},
		{ClientName: "Birch", Description: "Move-out", CreatedAt: time.Date(2026, 3, 11, 17, 5, 0, 0, time.UTC)},
	}
	got := StaleLeadMessage(leads, 48)
	want := "ALERT: 2 leads pending for more than 48 hours:\n\n" +
		"- Acme: Handover (since 2026-03-10 08:30)\n" +
		"- Birch: Move-out (since 2026-03-11 17:05)"
	if got != want {
		t.Errorf("StaleLeadMessage =\n%q\nwant\n%q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Completed jobs
// ---------------------------------------------------------------------------

func TestCompletedJobs_NotifiesAndFlags(t *testing.T) {
	s := openTestStore(t)
	a := seedContract(t, s, "Acme", "Handover", models.ContractCompleted, now.Add(-72*time.Hour))
	b := seedContract(t, s, "Birch", "Move-out", models.ContractCompleted, now.Add(-24*time.Hour))
	seedContract(t, s, "Cedar", "Defects", models.ContractInProgress, now.Add(-24*time.Hour))

	admin := &recordingAdmin{}
	n := newTestNotifier(t, s, admin)

	sent, err := n.CompletedJobs(context.Background())
	if err != nil {
		t.Fatalf("CompletedJobs: %v", err)
	}
	if sent != 2 || len(admin.sent) != 2 {
		t.Fatalf("sent = %d, messages = %d, want 2 and 2", sent, len(admin.sent))
	}
	want := "Job #" + itoa(a.ID) + " for Acme has been completed.\nReport is available at: https://reports.example.com/r/rpt-1"
	if admin.sent[0] != want {
		t.Errorf("message = %q, want %q", admin.sent[0], want)
	}
	if !strings.Contains(admin.sent[1], "Job #"+itoa(b.ID)+" for Birch") {
		t.Errorf("second message = %q", admin.sent[1])
	}

	// A second run finds nothing left to report.
	again, err := n.CompletedJobs(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again != 0 || len(admin.sent) != 2 {
		t.Errorf("second run sent %d, total messages %d, want 0 and 2", again, len(admin.sent))
	}
}

func TestCompletedJobs_NotifyFailureLeavesFlagUnset(t *testing.T) {
	s := openTestStore(t)
	seedContract(t, s, "Acme", "Handover", models.ContractCompleted, now)
	seedContract(t, s, "Birch", "Move-out", models.ContractCompleted, now)

	admin := &recordingAdmin{err: errors.New("gateway down"), failOn: 2}
	n := newTestNotifier(t, s, admin)

	sent, err := n.CompletedJobs(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}

	remaining, err := s.CompletedUnreported(context.Background())
	if err != nil {
		t.Fatalf("CompletedUnreported: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ClientName != "Birch" {
		t.Errorf("remaining = %+v, want only Birch", remaining)
	}
}

func TestCompletedJobs_MarkFailureStops(t *testing.T) {
	ls := &fakeLeadStore{
		completed: []models.Contract{{ID: 7, ClientName: "Acme"}, {ID: 8, ClientName: "Birch"}},
		markErr:   errors.New("deadlock"),
	}
	admin := &recordingAdmin{}
	n := newTestNotifier(t, ls, admin)

	sent, err := n.CompletedJobs(context.Background())
	if err == nil || !strings.Contains(err.Error(), "completed job 7") {
		t.Errorf("err = %v", err)
	}
	if sent != 0 || len(admin.sent) != 1 {
		t.Errorf("sent = %d, messages = %d, want 0 and 1", sent, len(admin.sent))
	}
}

func TestStaleLeadMessage_UsesClientRecord(t *testing.T) {
	leads := []models.Contract{
		{Client: models.Client{Name: "Acme Holdings"}, Description: "Handover", CreatedAt: time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)},
	}
	got := StaleLeadMessage(leads, 48)
	want := "ALERT: 1 leads pending for more than 48 hours:\n\n" +
		"- Acme Holdings: Handover (since 2026-03-10 08:30)"
	if got != want {
		t.Errorf("StaleLeadMessage =\n%q\nwant\n%q", got, want)
	}
}

func TestCompletedJobMessage_PrefersClientRecord(t *testing.T) {
	job := models.Contract{ID: 12, ClientName: "stale name", Client: models.Client{Name: "Acme Holdings"}}
	got := CompletedJobMessage(job, Report{URL: "https://r/x"})
	want := "Job #12 for Acme Holdings has been completed.\nReport is available at: https://r/x"
	if got != want {
		t.Errorf("CompletedJobMessage = %q, want %q", got, want)
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport("https://reports.example.com/r/", 5, "abc", now)
	if r.URL != "https://reports.example.com/r/abc" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.ContractID != 5 || r.ID != "abc" || !r.GeneratedAt.Equal(now) {
		t.Errorf("report = %+v", r)
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_DispatchesByName(t *testing.T) {
	ls := &fakeLeadStore{
		leads:     []models.Contract{{ID: 1, ClientName: "Acme", CreatedAt: now}},
		completed: []models.Contract{{ID: 2, ClientName: "Birch"}},
	}
	admin := &recordingAdmin{}
	n := newTestNotifier(t, ls, admin)

	if err := n.Run(context.Background(), JobStaleLeads); err != nil {
		t.Fatalf("Run stale-leads: %v", err)
	}
	if err := n.Run(context.Background(), JobCompletedJobs); err != nil {
		t.Fatalf("Run completed-jobs: %v", err)
	}
	if len(admin.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(admin.sent))
	}
	if len(ls.marked) != 1 || ls.marked[0] != 2 {
		t.Errorf("marked = %v, want [2]", ls.marked)
	}
}

func TestRun_UnknownJob(t *testing.T) {
	n := newTestNotifier(t, &fakeLeadStore{}, &recordingAdmin{})
	err := n.Run(context.Background(), "weekly-digest")
	if !errors.Is(err, ErrUnknownJob) {
		t.Errorf("err = %v, want ErrUnknownJob", err)
	}
}

// ---------------------------------------------------------------------------
// WhatsApp admin channel
// ---------------------------------------------------------------------------

type recordingSender struct {
	phone, message string
}

func (r *recordingSender) SendText(ctx context.Context, phone, message string) error {
	r.phone, r.message = phone, message
	return nil
}

func TestWhatsApp_Notify(t *testing.T) {
	sender := &recordingSender{}
	w, err := NewWhatsApp(sender, "+6591234567")
	if err != nil {
		t.Fatalf("NewWhatsApp: %v", err)
	}
	if err := w.Notify(context.Background(), "hello admin"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if sender.phone != "+6591234567" || sender.message != "hello admin" {
		t.Errorf("sent %q to %q", sender.message, sender.phone)
	}
}

func TestNewWhatsApp_Validation(t *testing.T) {
	if _, err := NewWhatsApp(nil, "+65"); err == nil {
		t.Error("expected error for nil sender")
	}
	if _, err := NewWhatsApp(&recordingSender{}, ""); err == nil {
		t.Error("expected error for empty contact")
	}
}

func itoa(n uint) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
