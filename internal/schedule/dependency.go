package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/store"
)

var (
	// ErrSelfDependency rejects an edge from a task to itself.
	ErrSelfDependency = errors.New("task cannot depend on itself")
	// ErrCrossProjectDependency rejects an edge between tasks of different projects.
	ErrCrossProjectDependency = errors.New("dependency tasks belong to different projects")
	// ErrInvalidDependencyType rejects an unknown relationship tag.
	ErrInvalidDependencyType = errors.New("invalid dependency type")
)

// AddDependencyInput describes a new edge: TaskID will not start until
// DependsOnTaskID finishes, offset by LagDays.
type AddDependencyInput struct {
	TaskID          uuid.UUID
	DependsOnTaskID uuid.UUID
	Type            models.DependencyType
	LagDays         int
}

// AddDependency validates and persists a new dependency edge. Both tasks must
// exist in the same project, the edge must not be self-referential, and it
// must not close a cycle through the existing dependency set. Validation runs
// before any store write.
func (e *Engine) AddDependency(ctx context.Context, in AddDependencyInput) (models.TaskDependency, error) {
	if in.TaskID == in.DependsOnTaskID {
		return models.TaskDependency{}, ErrSelfDependency
	}
	if in.Type == "" {
		in.Type = models.FinishToStart
	}
	if !in.Type.IsValid() {
		return models.TaskDependency{}, fmt.Errorf("%w: %q", ErrInvalidDependencyType, in.Type)
	}

	dependent, err := e.store.GetTask(ctx, in.TaskID)
	if err != nil {
		return models.TaskDependency{}, err
	}
	predecessor, err := e.store.GetTask(ctx, in.DependsOnTaskID)
	if err != nil {
		return models.TaskDependency{}, err
	}
	if dependent.ProjectID != predecessor.ProjectID {
		return models.TaskDependency{}, ErrCrossProjectDependency
	}

	deps, err := e.store.ListDependenciesByProject(ctx, dependent.ProjectID)
	if err != nil {
		return models.TaskDependency{}, err
	}
	if createsCycle(deps, in.TaskID, in.DependsOnTaskID) {
		return models.TaskDependency{}, fmt.Errorf("%w: %s already depends on %s",
			ErrDependencyCycle, in.DependsOnTaskID, in.TaskID)
	}

	return e.store.CreateDependency(ctx, store.DependencyInput{
		TaskID:          in.TaskID,
		DependsOnTaskID: in.DependsOnTaskID,
		Type:            in.Type,
		LagDays:         in.LagDays,
	})
}

// createsCycle reports whether adding the edge predecessor→dependent would
// close a cycle, i.e. whether the predecessor is already downstream of the
// dependent. BFS over successor edges from the dependent.
func createsCycle(deps []models.TaskDependency, dependent, predecessor uuid.UUID) bool {
	succs := make(map[uuid.UUID][]uuid.UUID)
	for _, d := range deps {
		succs[d.DependsOnTaskID] = append(succs[d.DependsOnTaskID], d.TaskID)
	}

	seen := map[uuid.UUID]bool{dependent: true}
	frontier := []uuid.UUID{dependent}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, next := range succs[id] {
			if next == predecessor {
				return true
			}
			if !seen[next] {
				seen[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false
}
