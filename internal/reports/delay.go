package reports

import (
	"context"
	"math"

	"github.com/google/uuid"
)

// hoursPerWorkday converts lost hours into lost crew-days.
const hoursPerWorkday = 8

// DelayImpact aggregates a project's weather delays.
type DelayImpact struct {
	ProjectID         uuid.UUID          `json:"projectId"`
	DelayCount        int                `json:"delayCount"`
	TotalHoursLost    float64            `json:"totalHoursLost"`
	TotalDaysLost     float64            `json:"totalDaysLost"`
	HoursByType       map[string]float64 `json:"hoursByType"`
	AffectedTaskCount int                `json:"affectedTaskCount"`
}

// DelayImpact sums lost hours across all weather-delay records, broken down
// by weather category, and counts the distinct tasks the delays touched.
func (r *Reporter) DelayImpact(ctx context.Context, projectID uuid.UUID) (*DelayImpact, error) {
	delays, err := r.store.ListWeatherDelaysByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	impact := &DelayImpact{
		ProjectID:   projectID,
		DelayCount:  len(delays),
		HoursByType: make(map[string]float64),
	}
	affected := make(map[uuid.UUID]struct{})
	for _, d := range delays {
		impact.TotalHoursLost += d.HoursLost
		impact.HoursByType[d.WeatherType] += d.HoursLost
		for _, id := range d.AffectedTaskIDs {
			affected[id] = struct{}{}
		}
	}
	impact.AffectedTaskCount = len(affected)
	impact.TotalDaysLost = round2(impact.TotalHoursLost / hoursPerWorkday)
	impact.TotalHoursLost = round2(impact.TotalHoursLost)
	return impact, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
