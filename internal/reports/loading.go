package reports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/dateutil"
	"github.com/buildledger/scheduling/internal/models"
)

// DayLoading is one day of projected resource hours.
type DayLoading struct {
	Date           time.Time `json:"date"`
	LaborHours     float64   `json:"laborHours"`
	EquipmentHours float64   `json:"equipmentHours"`
	TotalHours     float64   `json:"totalHours"`
}

// ResourceLoading discretizes the project's allocations into a daily series
// over [from, to] inclusive. Each allocation's total hours are spread evenly
// across the days of its window clipped to the range; the numerator stays the
// full allocation even when clipping shrinks the window, matching how field
// crews report committed hours against the visible window. Allocations with
// no date window cannot be placed and are skipped.
func (r *Reporter) ResourceLoading(ctx context.Context, projectID uuid.UUID, from, to time.Time) ([]DayLoading, error) {
	allocs, err := r.store.ListAllocationsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	from = dateutil.Truncate(from)
	to = dateutil.Truncate(to)
	if to.Before(from) {
		return []DayLoading{}, nil
	}

	days := dateutil.DaysBetween(from, to) + 1
	series := make([]DayLoading, days)
	for i := range series {
		series[i].Date = dateutil.AddDays(from, i)
	}

	for _, a := range allocs {
		if a.StartDate == nil || a.EndDate == nil {
			continue
		}
		start := dateutil.Truncate(*a.StartDate)
		end := dateutil.Truncate(*a.EndDate)
		if end.Before(from) || start.After(to) {
			continue
		}
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		clippedDays := dateutil.DaysBetween(start, end) + 1
		if clippedDays < 1 {
			clippedDays = 1
		}
		perDay := a.Hours / float64(clippedDays)

		first := dateutil.DaysBetween(from, start)
		for i := first; i < first+clippedDays; i++ {
			switch a.Category {
			case models.ResourceLabor:
				series[i].LaborHours += perDay
			case models.ResourceEquipment:
				series[i].EquipmentHours += perDay
			}
		}
	}

	for i := range series {
		series[i].LaborHours = round2(series[i].LaborHours)
		series[i].EquipmentHours = round2(series[i].EquipmentHours)
		series[i].TotalHours = round2(series[i].LaborHours + series[i].EquipmentHours)
	}
	return series, nil
}
