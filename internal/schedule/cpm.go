// Package schedule implements the critical-path engine, dependency
// validation and the percent-complete resolver for one project's task graph.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/events"
	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/store"
)

// ErrDependencyCycle reports a dependency cycle discovered during a CPM run.
// Cyclic tasks have no defined early/late dates, so the run is aborted rather
// than classifying them with a default float of zero.
var ErrDependencyCycle = errors.New("dependency cycle")

// criticalTolerance absorbs floating-point noise in day arithmetic; all
// stored durations and lags are integral.
const criticalTolerance = 0.001

// TaskSchedule is the computed schedule for a single task, in days from
// project start.
type TaskSchedule struct {
	TaskID         uuid.UUID `json:"taskId"`
	EarliestStart  float64   `json:"earliestStart"`
	EarliestFinish float64   `json:"earliestFinish"`
	LatestStart    float64   `json:"latestStart"`
	LatestFinish   float64   `json:"latestFinish"`
	Float          float64   `json:"float"`
	Critical       bool      `json:"critical"`
}

// CPMResult is the outcome of one engine run.
type CPMResult struct {
	ProjectID       uuid.UUID                   `json:"projectId"`
	ProjectDuration float64                     `json:"projectDuration"`
	Schedules       map[uuid.UUID]*TaskSchedule `json:"schedules"`
	CriticalTasks   []models.Task               `json:"criticalTasks"`
	FlagsUpdated    int                         `json:"flagsUpdated"`
}

// Engine runs critical-path analysis against the record store.
type Engine struct {
	store    store.Store
	notifier events.Notifier
}

func NewEngine(st store.Store, notifier events.Notifier) *Engine {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &Engine{store: st, notifier: notifier}
}

// Run loads the project's tasks and dependencies, computes early/late dates
// and float, and reconciles the stored critical-path flags in one batched
// write. Re-running on an unchanged graph issues no writes.
func (e *Engine) Run(ctx context.Context, projectID uuid.UUID) (*CPMResult, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	result := &CPMResult{
		ProjectID: project.ID,
		Schedules: make(map[uuid.UUID]*TaskSchedule, len(tasks)),
	}
	if len(tasks) == 0 {
		return result, nil
	}
	deps, err := e.store.ListDependenciesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	g := buildGraph(tasks, deps)
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	for _, id := range order {
		result.Schedules[id] = &TaskSchedule{TaskID: id}
	}

	// Forward pass: ES = max over predecessors of (EF + lag), 0 at the roots.
	for _, id := range order {
		ts := result.Schedules[id]
		es := 0.0
		for _, pred := range g.preds[id] {
			if v := result.Schedules[pred.task].EarliestFinish + float64(pred.lag); v > es {
				es = v
			}
		}
		ts.EarliestStart = es
		ts.EarliestFinish = es + g.duration(id)
		if ts.EarliestFinish > result.ProjectDuration {
			result.ProjectDuration = ts.EarliestFinish
		}
	}

	// Backward pass in reverse topological order: LF = min over successors of
	// (LS - lag), project duration at the sinks.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Schedules[id]
		lf := result.ProjectDuration
		for _, succ := range g.succs[id] {
			if v := result.Schedules[succ.task].LatestStart - float64(succ.lag); v < lf {
				lf = v
			}
		}
		ts.LatestFinish = lf
		ts.LatestStart = lf - g.duration(id)
		ts.Float = ts.LatestStart - ts.EarliestStart
		ts.Critical = ts.Float < criticalTolerance && ts.Float > -criticalTolerance
	}

	// Reconcile stored flags. Only tasks whose flag actually flips are
	// written, and all flips go out as a single batched update.
	var markIDs, clearIDs []uuid.UUID
	for _, t := range tasks {
		computed := result.Schedules[t.ID].Critical
		if computed == t.OnCriticalPath {
			continue
		}
		if computed {
			markIDs = append(markIDs, t.ID)
		} else {
			clearIDs = append(clearIDs, t.ID)
		}
	}
	if len(markIDs) > 0 || len(clearIDs) > 0 {
		if err := e.store.UpdateTaskCriticalFlags(ctx, markIDs, clearIDs); err != nil {
			return nil, err
		}
		result.FlagsUpdated = len(markIDs) + len(clearIDs)
		e.publishCriticalPathChanged(ctx, projectID, markIDs, clearIDs)
	}

	for _, t := range tasks {
		if result.Schedules[t.ID].Critical {
			t.OnCriticalPath = true
			result.CriticalTasks = append(result.CriticalTasks, t)
		}
	}
	sort.Slice(result.CriticalTasks, func(i, j int) bool {
		a, b := result.CriticalTasks[i], result.CriticalTasks[j]
		sa, sb := result.Schedules[a.ID].EarliestStart, result.Schedules[b.ID].EarliestStart
		if sa != sb {
			return sa < sb
		}
		return a.SortOrder < b.SortOrder
	})
	return result, nil
}

func (e *Engine) publishCriticalPathChanged(ctx context.Context, projectID uuid.UUID, markIDs, clearIDs []uuid.UUID) {
	payload, err := json.Marshal(map[string]interface{}{
		"marked":  markIDs,
		"cleared": clearIDs,
	})
	if err != nil {
		return
	}
	e.notifier.Publish(ctx, events.Event{
		Type:      events.TypeCriticalPathChanged,
		ProjectID: projectID,
		Payload:   payload,
		TS:        time.Now().UTC(),
	})
}

// topoSort runs Kahn's algorithm over the graph. Ready tasks are processed in
// task-ID order so results are deterministic across runs. An incomplete order
// means a cycle, which is reported rather than silently skipping its members.
func topoSort(g *taskGraph) ([]uuid.UUID, error) {
	inDegree := make(map[uuid.UUID]int, len(g.tasks))
	for id := range g.tasks {
		inDegree[id] = len(g.preds[id])
	}

	var queue []uuid.UUID
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sortIDs(queue)

	order := make([]uuid.UUID, 0, len(g.tasks))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var ready []uuid.UUID
		for _, succ := range g.succs[id] {
			inDegree[succ.task]--
			if inDegree[succ.task] == 0 {
				ready = append(ready, succ.task)
			}
		}
		sortIDs(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(g.tasks) {
		return nil, fmt.Errorf("%w: %d of %d tasks unreachable by topological sort",
			ErrDependencyCycle, len(g.tasks)-len(order), len(g.tasks))
	}
	return order, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
