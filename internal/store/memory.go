package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/models"
)

// MemoryStore provides an in-memory implementation useful for tests.
type MemoryStore struct {
	mu           sync.RWMutex
	projects     map[uuid.UUID]models.Project
	tasks        map[uuid.UUID]models.Task
	dependencies map[uuid.UUID]models.TaskDependency
	milestones   map[uuid.UUID]models.Milestone
	allocations  map[uuid.UUID]models.ResourceAllocation
	delays       map[uuid.UUID]models.WeatherDelay
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:     map[uuid.UUID]models.Project{},
		tasks:        map[uuid.UUID]models.Task{},
		dependencies: map[uuid.UUID]models.TaskDependency{},
		milestones:   map[uuid.UUID]models.Milestone{},
		allocations:  map[uuid.UUID]models.ResourceAllocation{},
		delays:       map[uuid.UUID]models.WeatherDelay{},
	}
}

// Seed helpers assign IDs and audit timestamps the way the real store does.

func (m *MemoryStore) PutProject(p models.Project) models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.projects[p.ID] = p
	return p
}

func (m *MemoryStore) PutTask(t models.Task) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.tasks[t.ID] = t
	return t
}

func (m *MemoryStore) PutMilestone(ms models.Milestone) models.Milestone {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms.ID == uuid.Nil {
		ms.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ms.CreatedAt.IsZero() {
		ms.CreatedAt = now
	}
	ms.UpdatedAt = now
	m.milestones[ms.ID] = ms
	return ms
}

func (m *MemoryStore) PutAllocation(a models.ResourceAllocation) models.ResourceAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.allocations[a.ID] = a
	return a
}

func (m *MemoryStore) PutWeatherDelay(d models.WeatherDelay) models.WeatherDelay {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	m.delays[d.ID] = d
	return d
}

func (m *MemoryStore) GetProject(ctx context.Context, id uuid.UUID) (models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return models.Project{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) ListTasksByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].SortOrder != tasks[j].SortOrder {
			return tasks[i].SortOrder < tasks[j].SortOrder
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (m *MemoryStore) ListDependenciesByProject(ctx context.Context, projectID uuid.UUID) ([]models.TaskDependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var deps []models.TaskDependency
	for _, d := range m.dependencies {
		t, ok := m.tasks[d.TaskID]
		if ok && t.ProjectID == projectID {
			deps = append(deps, d)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].CreatedAt.Before(deps[j].CreatedAt) })
	return deps, nil
}

func (m *MemoryStore) CreateDependency(ctx context.Context, in DependencyInput) (models.TaskDependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	dep := models.TaskDependency{
		ID:              in.ID,
		TaskID:          in.TaskID,
		DependsOnTaskID: in.DependsOnTaskID,
		Type:            in.Type,
		LagDays:         in.LagDays,
		CreatedAt:       time.Now().UTC(),
	}
	m.dependencies[dep.ID] = dep
	return dep, nil
}

func (m *MemoryStore) UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, percent float64, status models.TaskStatus) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	t.PercentComplete = percent
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	m.tasks[taskID] = t
	return t, nil
}

func (m *MemoryStore) UpdateTaskCriticalFlags(ctx context.Context, markIDs, clearIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range markIDs {
		if t, ok := m.tasks[id]; ok {
			t.OnCriticalPath = true
			t.UpdatedAt = now
			m.tasks[id] = t
		}
	}
	for _, id := range clearIDs {
		if t, ok := m.tasks[id]; ok {
			t.OnCriticalPath = false
			t.UpdatedAt = now
			m.tasks[id] = t
		}
	}
	return nil
}

func (m *MemoryStore) ListMilestonesByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var milestones []models.Milestone
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			milestones = append(milestones, ms)
		}
	}
	sort.Slice(milestones, func(i, j int) bool {
		a, b := milestones[i].TargetDate, milestones[j].TargetDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
	return milestones, nil
}

func (m *MemoryStore) ListAllocationsByProject(ctx context.Context, projectID uuid.UUID) ([]models.ResourceAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var allocs []models.ResourceAllocation
	for _, a := range m.allocations {
		if a.ProjectID == projectID {
			allocs = append(allocs, a)
		}
	}
	sort.Slice(allocs, func(i, j int) bool { return allocs[i].CreatedAt.Before(allocs[j].CreatedAt) })
	return allocs, nil
}

func (m *MemoryStore) ListWeatherDelaysByProject(ctx context.Context, projectID uuid.UUID) ([]models.WeatherDelay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var delays []models.WeatherDelay
	for _, d := range m.delays {
		if d.ProjectID == projectID {
			delays = append(delays, d)
		}
	}
	sort.Slice(delays, func(i, j int) bool { return delays[i].Date.Before(delays[j].Date) })
	return delays, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
