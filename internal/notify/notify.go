// Package notify runs the scheduled administrator notifications: stale
// leads and completed-job reports.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propertystewards/steward/internal/models"
)

// Job names accepted by Run.
const (
	JobStaleLeads    = "stale-leads"
	JobCompletedJobs = "completed-jobs"
)

// ErrUnknownJob is returned by Run for an unrecognised job name.
var ErrUnknownJob = errors.New("notify: unknown job")

// AdminNotifier delivers a text notification to the administrator.
type AdminNotifier interface {
	Notify(ctx context.Context, text string) error
}

// LeadStore is the slice of the domain store the notifiers read.
type LeadStore interface {
	PendingLeadsOlderThan(ctx context.Context, hours int) ([]models.Contract, error)
	CompletedUnreported(ctx context.Context) ([]models.Contract, error)
	MarkReportSent(ctx context.Context, contractID uint) error
}

// Notifier runs the administrator jobs.
type Notifier struct {
	store          LeadStore
	admin          AdminNotifier
	staleLeadHours int
	reportBaseURL  string
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
}

// Opts holds parameters for creating a Notifier.
type Opts struct {
	Store          LeadStore
	Admin          AdminNotifier
	StaleLeadHours int // defaults to 48
	ReportBaseURL  string
	Logger         *slog.Logger
	Now            func() time.Time
	NewID          func() string // report ID generator; defaults to uuid v4
}

// New creates a Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("notify: store is required")
	}
	if opts.Admin == nil {
		return nil, fmt.Errorf("notify: admin notifier is required")
	}
	n := &Notifier{
		store:          opts.Store,
		admin:          opts.Admin,
		staleLeadHours: opts.StaleLeadHours,
		reportBaseURL:  opts.ReportBaseURL,
		logger:         opts.Logger,
		now:            opts.Now,
		newID:          opts.NewID,
	}
	if n.staleLeadHours <= 0 {
		n.staleLeadHours = 48
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.now == nil {
		n.now = time.Now
	}
	if n.newID == nil {
		n.newID = func() string { return uuid.NewString() }
	}
	return n, nil
}

// Run executes the named job.
func (n *Notifier) Run(ctx context.Context, name string) error {
	var err error
	switch name {
	case JobStaleLeads:
		_, err = n.StaleLeads(ctx)
	case JobCompletedJobs:
		_, err = n.CompletedJobs(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return err
}

// StaleLeads sends one aggregate alert for pending contracts older than the
// threshold and returns how many were reported. Nothing is sent when there
// are none. Reruns resend the same alert.
func (n *Notifier) StaleLeads(ctx context.Context) (int, error) {
	leads, err := n.store.PendingLeadsOlderThan(ctx, n.staleLeadHours)
	if err != nil {
		return 0, fmt.Errorf("notify: stale leads: %w", err)
	}
	if len(leads) == 0 {
		n.logger.Debug("no stale leads", "hours", n.staleLeadHours)
		return 0, nil
	}
	if err := n.admin.Notify(ctx, StaleLeadMessage(leads, n.staleLeadHours)); err != nil {
		return 0, fmt.Errorf("notify: stale leads: %w", err)
	}
	n.logger.Info("stale lead alert sent", "leads", len(leads))
	return len(leads), nil
}

// StaleLeadMessage formats the aggregate alert.
func StaleLeadMessage(leads []models.Contract, hours int) string {
	lines := make([]string, len(leads))
	for i, l := range leads {
		lines[i] = fmt.Sprintf("- %s: %s (since %s)", clientName(l), l.Description, l.CreatedAt.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("ALERT: %d leads pending for more than %d hours:\n\n%s", len(leads), hours, strings.Join(lines, "\n"))
}

// CompletedJobs notifies the administrator of each completed contract whose
// report has not been sent, then flags it. It stops at the first failure
// and returns how many were reported. A report whose flag could not be set
// is sent again on the next run.
func (n *Notifier) CompletedJobs(ctx context.Context) (int, error) {
	jobs, err := n.store.CompletedUnreported(ctx)
	if err != nil {
		return 0, fmt.Errorf("notify: completed jobs: %w", err)
	}
	sent := 0
	for _, job := range jobs {
		report := NewReport(n.reportBaseURL, job.ID, n.newID(), n.now())
		if err := n.admin.Notify(ctx, CompletedJobMessage(job, report)); err != nil {
			return sent, fmt.Errorf("notify: completed job %d: %w", job.ID, err)
		}
		if err := n.store.MarkReportSent(ctx, job.ID); err != nil {
			return sent, fmt.Errorf("notify: completed job %d: %w", job.ID, err)
		}
		sent++
		n.logger.Info("completed job reported", "contract_id", job.ID, "report_id", report.ID)
	}
	return sent, nil
}

// CompletedJobMessage formats the per-job report notification.
func CompletedJobMessage(job models.Contract, report Report) string {
	return fmt.Sprintf("Job #%d for %s has been completed.\nReport is available at: %s", job.ID, clientName(job), report.URL)
}

// clientName prefers the client record over the name copied onto the contract.
func clientName(c models.Contract) string {
	if c.Client.Name != "" {
		return c.Client.Name
	}
	return c.ClientName
}
