package reports_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/reports"
	"github.com/buildledger/scheduling/internal/store"
)

func TestScheduleVariance_Sign(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})

	mem.PutTask(models.Task{
		ProjectID:     project.ID,
		Name:          "late pour",
		BaselineStart: datePtr(2026, 1, 1),
		BaselineEnd:   datePtr(2026, 1, 10),
		ActualStart:   datePtr(2026, 1, 1),
		ActualEnd:     datePtr(2026, 1, 15),
	})
	mem.PutTask(models.Task{
		ProjectID:     project.ID,
		Name:          "early pour",
		BaselineStart: datePtr(2026, 1, 1),
		BaselineEnd:   datePtr(2026, 1, 10),
		ActualStart:   datePtr(2026, 1, 1),
		ActualEnd:     datePtr(2026, 1, 5),
	})

	r := reports.NewReporter(mem)
	variances, err := r.ScheduleVariance(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, variances, 2)

	byID := map[string]reports.TaskVariance{}
	for _, v := range variances {
		byID[v.Name] = v
	}
	assert.Equal(t, 5, byID["late pour"].VarianceDays)
	assert.Equal(t, -5, byID["early pour"].VarianceDays)
	assert.Equal(t, 9, byID["late pour"].PlannedDurationDays)
	assert.Equal(t, 14, byID["late pour"].ActualDurationDays)
}

func TestScheduleVariance_Fallbacks(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})

	// No baseline: planned duration falls back to the duration field.
	mem.PutTask(models.Task{
		ProjectID:    project.ID,
		Name:         "no baseline",
		DurationDays: 7,
	})
	// Baseline but no actuals: variance stays 0, actual duration falls back
	// to planned dates.
	mem.PutTask(models.Task{
		ProjectID:     project.ID,
		Name:          "not started",
		BaselineStart: datePtr(2026, 2, 1),
		BaselineEnd:   datePtr(2026, 2, 8),
		StartDate:     datePtr(2026, 2, 1),
		EndDate:       datePtr(2026, 2, 10),
	})

	r := reports.NewReporter(mem)
	variances, err := r.ScheduleVariance(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, variances, 2)

	byName := map[string]reports.TaskVariance{}
	for _, v := range variances {
		byName[v.Name] = v
	}
	assert.Equal(t, 7, byName["no baseline"].PlannedDurationDays)
	assert.Equal(t, 0, byName["no baseline"].ActualDurationDays)
	assert.Equal(t, 0, byName["no baseline"].VarianceDays)

	assert.Equal(t, 7, byName["not started"].PlannedDurationDays)
	assert.Equal(t, 9, byName["not started"].ActualDurationDays)
	assert.Equal(t, 0, byName["not started"].VarianceDays, "missing actual end yields zero variance")
}

func TestScheduleVariance_EmptyProject(t *testing.T) {
	mem := store.NewMemoryStore()
	project := mem.PutProject(models.Project{Name: "p"})

	r := reports.NewReporter(mem)
	variances, err := r.ScheduleVariance(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Empty(t, variances)
}
