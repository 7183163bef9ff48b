package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/events"
	"github.com/buildledger/scheduling/internal/models"
)

// UpdateProgressInput selects a measurement method for a task. ManualValue is
// only consulted for the manual method.
type UpdateProgressInput struct {
	TaskID      uuid.UUID
	Method      models.ProgressMethod
	ManualValue float64
}

// UpdateProgress computes and persists a task's percent complete under the
// requested method, applying the status transitions that follow from the new
// value: 100 completes the task, any progress moves a not-started task into
// in_progress, everything else leaves status alone.
func (e *Engine) UpdateProgress(ctx context.Context, in UpdateProgressInput) (models.Task, error) {
	if !in.Method.IsValid() {
		return models.Task{}, fmt.Errorf("invalid percent-complete method %q", in.Method)
	}
	task, err := e.store.GetTask(ctx, in.TaskID)
	if err != nil {
		return models.Task{}, err
	}

	percent := round2(measure(task, in.Method, in.ManualValue))

	status := task.Status
	switch {
	case percent >= 100:
		status = models.TaskCompleted
	case percent > 0 && task.Status == models.TaskNotStarted:
		status = models.TaskInProgress
	}

	updated, err := e.store.UpdateTaskProgress(ctx, task.ID, percent, status)
	if err != nil {
		return models.Task{}, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"taskId":          updated.ID,
		"percentComplete": updated.PercentComplete,
		"status":          updated.Status,
		"method":          in.Method,
	})
	if err == nil {
		e.notifier.Publish(ctx, events.Event{
			Type:      events.TypeTaskProgressUpdated,
			ProjectID: updated.ProjectID,
			Payload:   payload,
			TS:        time.Now().UTC(),
		})
	}
	return updated, nil
}

// measure derives percent complete from the task's measured quantities. Cost
// and units ratios degrade to 0 when the budget denominator is non-positive.
func measure(task models.Task, method models.ProgressMethod, manual float64) float64 {
	switch method {
	case models.MethodCost:
		return ratioPercent(task.ActualCost, task.BudgetCost)
	case models.MethodUnits:
		return ratioPercent(task.ActualHours, task.BudgetHours)
	default:
		return clampPercent(manual)
	}
}

func ratioPercent(actual, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return math.Min(100, actual/budget*100)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
