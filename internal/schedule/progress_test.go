package schedule_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/scheduling/internal/events"
	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/schedule"
	"github.com/buildledger/scheduling/internal/store"
)

func TestUpdateProgress_Methods(t *testing.T) {
	tests := []struct {
		name        string
		task        models.Task
		method      models.ProgressMethod
		manual      float64
		wantPercent float64
		wantStatus  models.TaskStatus
	}{
		{
			name:        "cost overrun clamps to 100",
			task:        models.Task{BudgetCost: 100, ActualCost: 150, Status: models.TaskInProgress},
			method:      models.MethodCost,
			wantPercent: 100,
			wantStatus:  models.TaskCompleted,
		},
		{
			name:        "cost partial",
			task:        models.Task{BudgetCost: 200, ActualCost: 50, Status: models.TaskInProgress},
			method:      models.MethodCost,
			wantPercent: 25,
			wantStatus:  models.TaskInProgress,
		},
		{
			name:        "cost zero budget degrades to zero",
			task:        models.Task{BudgetCost: 0, ActualCost: 500, Status: models.TaskNotStarted},
			method:      models.MethodCost,
			wantPercent: 0,
			wantStatus:  models.TaskNotStarted,
		},
		{
			name:        "units ratio rounds to 2 decimals",
			task:        models.Task{BudgetHours: 3, ActualHours: 1, Status: models.TaskInProgress},
			method:      models.MethodUnits,
			wantPercent: 33.33,
			wantStatus:  models.TaskInProgress,
		},
		{
			name:        "manual clamps high",
			task:        models.Task{Status: models.TaskInProgress},
			method:      models.MethodManual,
			manual:      250,
			wantPercent: 100,
			wantStatus:  models.TaskCompleted,
		},
		{
			name:        "manual clamps low",
			task:        models.Task{Status: models.TaskInProgress},
			method:      models.MethodManual,
			manual:      -10,
			wantPercent: 0,
			wantStatus:  models.TaskInProgress,
		},
		{
			name:        "any progress starts a not-started task",
			task:        models.Task{Status: models.TaskNotStarted},
			method:      models.MethodManual,
			manual:      1,
			wantPercent: 1,
			wantStatus:  models.TaskInProgress,
		},
		{
			name:        "manual 100 completes regardless of prior status",
			task:        models.Task{Status: models.TaskDelayed},
			method:      models.MethodManual,
			manual:      100,
			wantPercent: 100,
			wantStatus:  models.TaskCompleted,
		},
		{
			name:        "zero manual leaves delayed status alone",
			task:        models.Task{Status: models.TaskDelayed},
			method:      models.MethodManual,
			manual:      0,
			wantPercent: 0,
			wantStatus:  models.TaskDelayed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			project := seedProject(t, mem)
			tt.task.ProjectID = project.ID
			tt.task.Name = "finish carpentry"
			task := mem.PutTask(tt.task)

			engine := schedule.NewEngine(mem, nil)
			updated, err := engine.UpdateProgress(context.Background(), schedule.UpdateProgressInput{
				TaskID:      task.ID,
				Method:      tt.method,
				ManualValue: tt.manual,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, updated.PercentComplete)
			assert.Equal(t, tt.wantStatus, updated.Status)

			stored, err := mem.GetTask(context.Background(), task.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, stored.PercentComplete)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestUpdateProgress_UnknownTask(t *testing.T) {
	engine := schedule.NewEngine(store.NewMemoryStore(), nil)
	_, err := engine.UpdateProgress(context.Background(), schedule.UpdateProgressInput{
		TaskID: uuid.New(),
		Method: models.MethodManual,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateProgress_InvalidMethod(t *testing.T) {
	engine := schedule.NewEngine(store.NewMemoryStore(), nil)
	_, err := engine.UpdateProgress(context.Background(), schedule.UpdateProgressInput{
		TaskID: uuid.New(),
		Method: models.ProgressMethod("guess"),
	})
	assert.Error(t, err)
}

func TestUpdateProgress_PublishesEvent(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	task := mem.PutTask(models.Task{ProjectID: project.ID, Name: "grading", Status: models.TaskNotStarted})

	notifier := &recordingNotifier{}
	engine := schedule.NewEngine(mem, notifier)

	_, err := engine.UpdateProgress(context.Background(), schedule.UpdateProgressInput{
		TaskID:      task.ID,
		Method:      models.MethodManual,
		ManualValue: 40,
	})
	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, events.TypeTaskProgressUpdated, notifier.events[0].Type)
	assert.Equal(t, project.ID, notifier.events[0].ProjectID)
}
