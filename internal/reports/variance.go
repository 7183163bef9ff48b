package reports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/dateutil"
)

// TaskVariance compares one task's baseline schedule against what actually
// happened. VarianceDays is positive when the task finished later than its
// baseline end, negative when earlier, and 0 when either date is missing.
type TaskVariance struct {
	TaskID              uuid.UUID  `json:"taskId"`
	Name                string     `json:"name"`
	BaselineEnd         *time.Time `json:"baselineEnd,omitempty"`
	ActualEnd           *time.Time `json:"actualEnd,omitempty"`
	PlannedDurationDays int        `json:"plannedDurationDays"`
	ActualDurationDays  int        `json:"actualDurationDays"`
	VarianceDays        int        `json:"varianceDays"`
}

// ScheduleVariance reports per-task baseline-vs-actual deltas for a project.
// Planned duration comes from the baseline window, falling back to the task's
// duration field; actual duration falls back through planned dates when
// actuals are not recorded yet.
func (r *Reporter) ScheduleVariance(ctx context.Context, projectID uuid.UUID) ([]TaskVariance, error) {
	tasks, err := r.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	variances := make([]TaskVariance, 0, len(tasks))
	for _, t := range tasks {
		v := TaskVariance{
			TaskID:      t.ID,
			Name:        t.Name,
			BaselineEnd: t.BaselineEnd,
			ActualEnd:   t.ActualEnd,
		}

		if t.BaselineStart != nil && t.BaselineEnd != nil {
			v.PlannedDurationDays = dateutil.DaysBetween(*t.BaselineStart, *t.BaselineEnd)
		} else {
			v.PlannedDurationDays = t.DurationDays
		}

		start := t.ActualStart
		if start == nil {
			start = t.StartDate
		}
		end := t.ActualEnd
		if end == nil {
			end = t.EndDate
		}
		if start != nil && end != nil {
			v.ActualDurationDays = dateutil.DaysBetween(*start, *end)
		}

		if t.BaselineEnd != nil && t.ActualEnd != nil {
			v.VarianceDays = dateutil.DaysBetween(*t.BaselineEnd, *t.ActualEnd)
		}

		variances = append(variances, v)
	}
	return variances, nil
}
