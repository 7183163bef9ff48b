package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/buildledger/scheduling/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the record-store boundary consumed by the scheduling engine. Empty
// list results mean "the project has no such records", never an error; a
// missing keyed record is ErrNotFound.
type Store interface {
	GetProject(ctx context.Context, id uuid.UUID) (models.Project, error)
	GetTask(ctx context.Context, id uuid.UUID) (models.Task, error)
	ListTasksByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	ListDependenciesByProject(ctx context.Context, projectID uuid.UUID) ([]models.TaskDependency, error)
	CreateDependency(ctx context.Context, in DependencyInput) (models.TaskDependency, error)
	UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, percent float64, status models.TaskStatus) (models.Task, error)
	UpdateTaskCriticalFlags(ctx context.Context, markIDs, clearIDs []uuid.UUID) error
	ListMilestonesByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error)
	ListAllocationsByProject(ctx context.Context, projectID uuid.UUID) ([]models.ResourceAllocation, error)
	ListWeatherDelaysByProject(ctx context.Context, projectID uuid.UUID) ([]models.WeatherDelay, error)
	Ping(ctx context.Context) error
}

type DependencyInput struct {
	ID              uuid.UUID
	TaskID          uuid.UUID
	DependsOnTaskID uuid.UUID
	Type            models.DependencyType
	LagDays         int
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const taskColumns = `
	id, project_id, milestone_id, name, start_date, end_date,
	baseline_start, baseline_end, duration_days, actual_start, actual_end,
	percent_complete, status, on_critical_path, budget_hours, actual_hours,
	budget_cost, actual_cost, sort_order, created_at, updated_at
`

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.MilestoneID, &t.Name, &t.StartDate, &t.EndDate,
		&t.BaselineStart, &t.BaselineEnd, &t.DurationDays, &t.ActualStart, &t.ActualEnd,
		&t.PercentComplete, &t.Status, &t.OnCriticalPath, &t.BudgetHours, &t.ActualHours,
		&t.BudgetCost, &t.ActualCost, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (s *PGStore) GetProject(ctx context.Context, id uuid.UUID) (models.Project, error) {
	const query = `
		SELECT id, name, status, start_date, end_date, baseline_start, baseline_end,
			percent_complete, percent_complete_method, budgeted_cost, actual_cost,
			earned_value, created_at, updated_at
		FROM projects
		WHERE id=$1
	`
	var p models.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Status, &p.StartDate, &p.EndDate, &p.BaselineStart, &p.BaselineEnd,
		&p.PercentComplete, &p.PercentCompleteMethod, &p.BudgetedCost, &p.ActualCost,
		&p.EarnedValue, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *PGStore) ListTasksByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id=$1 ORDER BY sort_order, created_at`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListDependenciesByProject returns every dependency whose dependent task
// belongs to the project.
func (s *PGStore) ListDependenciesByProject(ctx context.Context, projectID uuid.UUID) ([]models.TaskDependency, error) {
	const query = `
		SELECT d.id, d.task_id, d.depends_on_task_id, d.type, d.lag_days, d.created_at
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.project_id=$1
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []models.TaskDependency
	for rows.Next() {
		var d models.TaskDependency
		if err := rows.Scan(&d.ID, &d.TaskID, &d.DependsOnTaskID, &d.Type, &d.LagDays, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func (s *PGStore) CreateDependency(ctx context.Context, in DependencyInput) (models.TaskDependency, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	const query = `
		INSERT INTO task_dependencies (id, task_id, depends_on_task_id, type, lag_days)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := s.db.QueryRowContext(ctx, query, in.ID, in.TaskID, in.DependsOnTaskID, in.Type, in.LagDays).Scan(&createdAt); err != nil {
		return models.TaskDependency{}, fmt.Errorf("insert dependency: %w", err)
	}
	return models.TaskDependency{
		ID:              in.ID,
		TaskID:          in.TaskID,
		DependsOnTaskID: in.DependsOnTaskID,
		Type:            in.Type,
		LagDays:         in.LagDays,
		CreatedAt:       createdAt,
	}, nil
}

func (s *PGStore) UpdateTaskProgress(ctx context.Context, taskID uuid.UUID, percent float64, status models.TaskStatus) (models.Task, error) {
	query := `
		UPDATE tasks
		SET percent_complete=$2, status=$3, updated_at=now()
		WHERE id=$1
		RETURNING ` + taskColumns
	t, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, percent, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("update task progress: %w", err)
	}
	return t, nil
}

// UpdateTaskCriticalFlags flips the critical-path flag for every listed task in
// one statement, so a crash cannot leave the batch half applied.
func (s *PGStore) UpdateTaskCriticalFlags(ctx context.Context, markIDs, clearIDs []uuid.UUID) error {
	if len(markIDs) == 0 && len(clearIDs) == 0 {
		return nil
	}
	const query = `
		UPDATE tasks
		SET on_critical_path = (id = ANY($1)), updated_at = now()
		WHERE id = ANY($1) OR id = ANY($2)
	`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(uuidStrings(markIDs)), pq.Array(uuidStrings(clearIDs))); err != nil {
		return fmt.Errorf("update critical flags: %w", err)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (s *PGStore) ListMilestonesByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	const query = `
		SELECT id, project_id, name, target_date, completed, completed_at, created_at, updated_at
		FROM milestones
		WHERE project_id=$1
		ORDER BY target_date
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.TargetDate, &m.Completed, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (s *PGStore) ListAllocationsByProject(ctx context.Context, projectID uuid.UUID) ([]models.ResourceAllocation, error) {
	const query = `
		SELECT id, project_id, task_id, category, hours, start_date, end_date, created_at, updated_at
		FROM resource_allocations
		WHERE project_id=$1
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []models.ResourceAllocation
	for rows.Next() {
		var a models.ResourceAllocation
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.TaskID, &a.Category, &a.Hours, &a.StartDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (s *PGStore) ListWeatherDelaysByProject(ctx context.Context, projectID uuid.UUID) ([]models.WeatherDelay, error) {
	const query = `
		SELECT id, project_id, date, weather_type, hours_lost, description, affected_task_ids, created_at
		FROM weather_delays
		WHERE project_id=$1
		ORDER BY date
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list weather delays: %w", err)
	}
	defer rows.Close()

	var delays []models.WeatherDelay
	for rows.Next() {
		var d models.WeatherDelay
		var affected pq.StringArray
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Date, &d.WeatherType, &d.HoursLost, &d.Description, &affected, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan weather delay: %w", err)
		}
		for _, raw := range affected {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parse affected task id %q: %w", raw, err)
			}
			d.AffectedTaskIDs = append(d.AffectedTaskIDs, id)
		}
		delays = append(delays, d)
	}
	return delays, rows.Err()
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
