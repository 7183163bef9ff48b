// Package reports contains the read-only projections over a project's
// schedule data: look-ahead windows, baseline variance, weather-delay impact
// and resource loading. Reporters never write to the store, and incomplete
// data (missing dates, empty lists) degrades to empty or zero output so
// reports stay renderable for projects still being set up.
package reports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/dateutil"
	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/store"
)

type Reporter struct {
	store store.Store
}

func NewReporter(st store.Store) *Reporter {
	return &Reporter{store: st}
}

// LookAheadReport is the slice of schedule falling inside a forward window.
type LookAheadReport struct {
	ProjectID  uuid.UUID          `json:"projectId"`
	AsOf       time.Time          `json:"asOf"`
	WindowEnd  time.Time          `json:"windowEnd"`
	Weeks      int                `json:"weeks"`
	Tasks      []models.Task      `json:"tasks"`
	Milestones []models.Milestone `json:"milestones"`
}

// LookAhead returns every task whose date span overlaps [asOf, asOf+weeks*7],
// plus milestones targeted inside the window. A task's start falls back to
// its actual start; its effective end falls back to actual end, then to the
// start itself. Tasks with no start date at all are excluded.
func (r *Reporter) LookAhead(ctx context.Context, projectID uuid.UUID, weeks int, asOf time.Time) (*LookAheadReport, error) {
	tasks, err := r.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	milestones, err := r.store.ListMilestonesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	asOf = dateutil.Truncate(asOf)
	windowEnd := dateutil.AddDays(asOf, weeks*7)
	report := &LookAheadReport{
		ProjectID: projectID,
		AsOf:      asOf,
		WindowEnd: windowEnd,
		Weeks:     weeks,
	}

	for _, t := range tasks {
		start := t.StartDate
		if start == nil {
			start = t.ActualStart
		}
		if start == nil {
			continue
		}
		end := t.EndDate
		if end == nil {
			end = t.ActualEnd
		}
		if end == nil {
			end = start
		}
		if !dateutil.Truncate(*end).Before(asOf) && !dateutil.Truncate(*start).After(windowEnd) {
			report.Tasks = append(report.Tasks, t)
		}
	}

	for _, m := range milestones {
		if m.TargetDate == nil {
			continue
		}
		target := dateutil.Truncate(*m.TargetDate)
		if !target.Before(asOf) && !target.After(windowEnd) {
			report.Milestones = append(report.Milestones, m)
		}
	}
	return report, nil
}
