// Package actions executes the structured actions produced by the intent
// resolver against the domain store.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propertystewards/steward/internal/llm"
	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/store"
)

// Action types understood by the Dispatcher.
const (
	GetJobs       = "GET_JOBS"
	CheckRoom     = "CHECK_ROOM"
	AddComment    = "ADD_COMMENT"
	ModifyComment = "MODIFY_COMMENT"
	DeleteMedia   = "DELETE_MEDIA"
	GetComment    = "GET_COMMENT"
	MarkTaskDone  = "MARK_TASK_DONE"
	CancelJob     = "CANCEL_JOB"
	RescheduleJob = "RESCHEDULE_JOB"
)

var (
	// ErrMissingParam is returned when a required action parameter is absent.
	ErrMissingParam = errors.New("actions: missing parameter")
	// ErrInvalidParam is returned when a parameter cannot be interpreted.
	ErrInvalidParam = errors.New("actions: invalid parameter")
	// ErrUnknownAction is returned by Execute for unrecognised action types.
	ErrUnknownAction = errors.New("actions: unknown action type")
)

// Gateway is the subset of the domain store the dispatcher drives.
type Gateway interface {
	WorkOrdersForDay(ctx context.Context, inspectorID uint, day time.Time) ([]store.Job, error)
	ChecklistForRoom(ctx context.Context, contractID uint, roomName string) ([]models.ChecklistItem, error)
	AddComment(ctx context.Context, inspectorID, contractID uint, taskName, text string) (uint, error)
	UpdateComment(ctx context.Context, commentID uint, text string) (bool, error)
	DeleteMedia(ctx context.Context, mediaID uint) (bool, error)
	GetComment(ctx context.Context, commentID uint) (*models.Comment, error)
	MarkTaskComplete(ctx context.Context, contractID uint, taskName string, inspectorID uint) (bool, error)
	CancelContract(ctx context.Context, contractID uint, reason string) (bool, error)
	RescheduleWorkOrders(ctx context.Context, contractID uint, newDate time.Time) (bool, error)
}

// Result is the outcome of one executed action. Only the fields relevant
// to Type are set.
type Result struct {
	Type      string
	Jobs      []store.Job
	Room      string
	Checklist []models.ChecklistItem
	CommentID uint
	Comment   *models.Comment
	Success   bool
}

// Summary renders the result for appending to a reply. Actions whose only
// outcome is a success flag render as the empty string.
func (r Result) Summary() string {
	switch r.Type {
	case GetJobs:
		return FormatWorkOrders(r.Jobs)
	case CheckRoom:
		return FormatChecklist(r.Checklist, r.Room)
	case AddComment:
		return fmt.Sprintf("Comment #%d added.", r.CommentID)
	case GetComment:
		if r.Comment != nil {
			return FormatComment(r.Comment)
		}
	}
	return ""
}

// Dispatcher maps each action to exactly one store operation.
type Dispatcher struct {
	gw       Gateway
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location
}

// Opts holds parameters for creating a Dispatcher.
type Opts struct {
	Gateway  Gateway
	Logger   *slog.Logger
	Now      func() time.Time
	Location *time.Location // zone for date params; defaults to UTC
}

// New creates a Dispatcher.
func New(opts Opts) (*Dispatcher, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("actions: gateway is required")
	}
	d := &Dispatcher{
		gw:       opts.Gateway,
		logger:   opts.Logger,
		now:      opts.Now,
		location: opts.Location,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.location == nil {
		d.location = time.UTC
	}
	return d, nil
}

// Dispatch executes actions sequentially in order. Unknown types are
// logged and skipped. The first failing action aborts the rest; effects of
// earlier actions are kept. The results gathered so far are returned
// alongside the error.
func (d *Dispatcher) Dispatch(ctx context.Context, inspectorID uint, actions []llm.Action) ([]Result, error) {
	results := make([]Result, 0, len(actions))
	for i, a := range actions {
		res, err := d.Execute(ctx, inspectorID, a)
		if errors.Is(err, ErrUnknownAction) {
			d.logger.Warn("skipping unknown action", "action", a.Type, "inspector_id", inspectorID)
			continue
		}
		if err != nil {
			d.logger.Error("action failed", "action", a.Type, "index", i, "inspector_id", inspectorID, "error", err)
			return results, fmt.Errorf("actions: %s (%d of %d): %w", a.Type, i+1, len(actions), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Execute runs a single action.
func (d *Dispatcher) Execute(ctx context.Context, inspectorID uint, a llm.Action) (Result, error) {
	p := a.Params
	if p == nil {
		p = map[string]any{}
	}
	res := Result{Type: a.Type}

	switch a.Type {
	case GetJobs:
		day, err := dateParam(p, "date", d.location, d.now().In(d.location))
		if err != nil {
			return res, err
		}
		res.Jobs, err = d.gw.WorkOrdersForDay(ctx, inspectorID, day)
		return res, err

	case CheckRoom:
		contractID, err := idParam(p, "contractId")
		if err != nil {
			return res, err
		}
		if res.Room, err = stringParam(p, "roomName"); err != nil {
			return res, err
		}
		res.Checklist, err = d.gw.ChecklistForRoom(ctx, contractID, res.Room)
		return res, err

	case AddComment:
		contractID, err := idParam(p, "contractId")
		if err != nil {
			return res, err
		}
		task, err := stringParam(p, "taskName")
		if err != nil {
			return res, err
		}
		text, err := stringParam(p, "commentText")
		if err != nil {
			return res, err
		}
		res.CommentID, err = d.gw.AddComment(ctx, inspectorID, contractID, task, text)
		res.Success = err == nil
		return res, err

	case ModifyComment:
		commentID, err := idParam(p, "commentId")
		if err != nil {
			return res, err
		}
		text, err := stringParam(p, "newText")
		if err != nil {
			return res, err
		}
		res.Success, err = d.gw.UpdateComment(ctx, commentID, text)
		return res, err

	case DeleteMedia:
		mediaID, err := idParam(p, "mediaId")
		if err != nil {
			return res, err
		}
		res.Success, err = d.gw.DeleteMedia(ctx, mediaID)
		return res, err

	case GetComment:
		commentID, err := idParam(p, "commentId")
		if err != nil {
			return res, err
		}
		res.Comment, err = d.gw.GetComment(ctx, commentID)
		if errors.Is(err, store.ErrNotFound) {
			return res, nil
		}
		res.Success = err == nil
		return res, err

	case MarkTaskDone:
		contractID, err := idParam(p, "contractId")
		if err != nil {
			return res, err
		}
		task, err := stringParam(p, "taskName")
		if err != nil {
			return res, err
		}
		res.Success, err = d.gw.MarkTaskComplete(ctx, contractID, task, inspectorID)
		return res, err

	case CancelJob:
		contractID, err := idParam(p, "contractId")
		if err != nil {
			return res, err
		}
		reason, err := stringParam(p, "reason")
		if err != nil {
			return res, err
		}
		res.Success, err = d.gw.CancelContract(ctx, contractID, reason)
		return res, err

	case RescheduleJob:
		contractID, err := idParam(p, "contractId")
		if err != nil {
			return res, err
		}
		newDate, err := requiredDateParam(p, "newDate", d.location)
		if err != nil {
			return res, err
		}
		res.Success, err = d.gw.RescheduleWorkOrders(ctx, contractID, newDate)
		return res, err

	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}
