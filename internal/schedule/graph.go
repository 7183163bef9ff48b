package schedule

import (
	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/models"
)

// edge links a task to a neighbor together with the dependency lag in days.
type edge struct {
	task uuid.UUID
	lag  int
}

// taskGraph is the in-memory dependency graph for one project, rebuilt from
// the store on every engine invocation.
type taskGraph struct {
	tasks map[uuid.UUID]models.Task
	preds map[uuid.UUID][]edge // incoming edges: predecessors of a task
	succs map[uuid.UUID][]edge // outgoing edges: successors of a task
}

// buildGraph indexes tasks and dependencies into adjacency maps. Dependency
// rows referencing tasks outside the loaded set are dropped; they belong to
// records deleted out from under the edge table.
func buildGraph(tasks []models.Task, deps []models.TaskDependency) *taskGraph {
	g := &taskGraph{
		tasks: make(map[uuid.UUID]models.Task, len(tasks)),
		preds: make(map[uuid.UUID][]edge),
		succs: make(map[uuid.UUID][]edge),
	}
	for _, t := range tasks {
		g.tasks[t.ID] = t
	}
	for _, d := range deps {
		if _, ok := g.tasks[d.TaskID]; !ok {
			continue
		}
		if _, ok := g.tasks[d.DependsOnTaskID]; !ok {
			continue
		}
		g.preds[d.TaskID] = append(g.preds[d.TaskID], edge{task: d.DependsOnTaskID, lag: d.LagDays})
		g.succs[d.DependsOnTaskID] = append(g.succs[d.DependsOnTaskID], edge{task: d.TaskID, lag: d.LagDays})
	}
	return g
}

// duration returns the task's duration in days, never negative.
func (g *taskGraph) duration(id uuid.UUID) float64 {
	d := g.tasks[id].DurationDays
	if d < 0 {
		return 0
	}
	return float64(d)
}
