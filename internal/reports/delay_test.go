package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/reports"
	"github.com/buildledger/scheduling/internal/store"
)

func TestDelayImpact(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})
	taskA := uuid.New()
	taskB := uuid.New()

	mem.PutWeatherDelay(models.WeatherDelay{
		ProjectID:       project.ID,
		Date:            time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		WeatherType:     "rain",
		HoursLost:       4,
		AffectedTaskIDs: []uuid.UUID{taskA, taskB},
	})
	mem.PutWeatherDelay(models.WeatherDelay{
		ProjectID:       project.ID,
		Date:            time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		WeatherType:     "rain",
		HoursLost:       6,
		AffectedTaskIDs: []uuid.UUID{taskB}, // taskB counted once
	})

	r := reports.NewReporter(mem)
	impact, err := r.DelayImpact(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, impact.DelayCount)
	assert.Equal(t, 10.0, impact.TotalHoursLost)
	assert.Equal(t, 1.25, impact.TotalDaysLost)
	assert.Equal(t, map[string]float64{"rain": 10}, impact.HoursByType)
	assert.Equal(t, 2, impact.AffectedTaskCount)
}

func TestDelayImpact_MultipleCategories(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})

	mem.PutWeatherDelay(models.WeatherDelay{
		ProjectID: project.ID, WeatherType: "rain", HoursLost: 8,
		Date: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	})
	mem.PutWeatherDelay(models.WeatherDelay{
		ProjectID: project.ID, WeatherType: "high_wind", HoursLost: 3,
		Date: time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
	})

	r := reports.NewReporter(mem)
	impact, err := r.DelayImpact(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 11.0, impact.TotalHoursLost)
	assert.Equal(t, 1.38, impact.TotalDaysLost) // 11/8 rounded
	assert.Equal(t, 8.0, impact.HoursByType["rain"])
	assert.Equal(t, 3.0, impact.HoursByType["high_wind"])
	assert.Equal(t, 0, impact.AffectedTaskCount)
}

func TestDelayImpact_NoDelays(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})

	r := reports.NewReporter(mem)
	impact, err := r.DelayImpact(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, impact.DelayCount)
	assert.Equal(t, 0.0, impact.TotalHoursLost)
	assert.Equal(t, 0.0, impact.TotalDaysLost)
	assert.Empty(t, impact.HoursByType)
}
