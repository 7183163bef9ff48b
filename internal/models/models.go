package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProgressMethod selects how a task's percent complete is measured.
type ProgressMethod string

const (
	MethodCost   ProgressMethod = "cost"
	MethodUnits  ProgressMethod = "units"
	MethodManual ProgressMethod = "manual"
)

func (m ProgressMethod) IsValid() bool {
	switch m {
	case MethodCost, MethodUnits, MethodManual:
		return true
	default:
		return false
	}
}

// TaskStatus is the execution state of a task.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskDelayed    TaskStatus = "delayed"
)

// DependencyType tags the relationship between two tasks. Only finish-to-start
// semantics are honored by the scheduler; the other tags are stored as-is.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

func (d DependencyType) IsValid() bool {
	switch d {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	default:
		return false
	}
}

// ResourceCategory is a closed two-value tag; the resource-loading projection
// switches exhaustively over it.
type ResourceCategory string

const (
	ResourceLabor     ResourceCategory = "labor"
	ResourceEquipment ResourceCategory = "equipment"
)

func (c ResourceCategory) IsValid() bool {
	return c == ResourceLabor || c == ResourceEquipment
}

// Project is the scheduling root. BudgetedCost, ActualCost and EarnedValue are
// maintained by the owning accounting service; the EVM calculator only reads them.
type Project struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	Status                ProjectStatus  `json:"status"`
	StartDate             *time.Time     `json:"startDate,omitempty"`
	EndDate               *time.Time     `json:"endDate,omitempty"`
	BaselineStart         *time.Time     `json:"baselineStart,omitempty"`
	BaselineEnd           *time.Time     `json:"baselineEnd,omitempty"`
	PercentComplete       float64        `json:"percentComplete"`
	PercentCompleteMethod ProgressMethod `json:"percentCompleteMethod"`
	BudgetedCost          float64        `json:"budgetedCost"`
	ActualCost            float64        `json:"actualCost"`
	EarnedValue           float64        `json:"earnedValue"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// Task is the atomic schedulable unit. OnCriticalPath is derived by the CPM
// engine; PercentComplete and Status are written by the progress resolver.
type Task struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"projectId"`
	MilestoneID     *uuid.UUID `json:"milestoneId,omitempty"`
	Name            string     `json:"name"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	BaselineStart   *time.Time `json:"baselineStart,omitempty"`
	BaselineEnd     *time.Time `json:"baselineEnd,omitempty"`
	DurationDays    int        `json:"durationDays"`
	ActualStart     *time.Time `json:"actualStart,omitempty"`
	ActualEnd       *time.Time `json:"actualEnd,omitempty"`
	PercentComplete float64    `json:"percentComplete"`
	Status          TaskStatus `json:"status"`
	OnCriticalPath  bool       `json:"onCriticalPath"`
	BudgetHours     float64    `json:"budgetHours"`
	ActualHours     float64    `json:"actualHours"`
	BudgetCost      float64    `json:"budgetCost"`
	ActualCost      float64    `json:"actualCost"`
	SortOrder       int        `json:"sortOrder"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TaskDependency is a directed edge: TaskID cannot start until DependsOnTaskID
// finishes, offset by LagDays (negative lag is a lead).
type TaskDependency struct {
	ID              uuid.UUID      `json:"id"`
	TaskID          uuid.UUID      `json:"taskId"`
	DependsOnTaskID uuid.UUID      `json:"dependsOnTaskId"`
	Type            DependencyType `json:"type"`
	LagDays         int            `json:"lagDays"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Milestone marks a named date on the project schedule.
type Milestone struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	Name        string     `json:"name"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ResourceAllocation is a coarse commitment of hours over a date window. When
// TaskID is nil the allocation is project-level.
type ResourceAllocation struct {
	ID        uuid.UUID        `json:"id"`
	ProjectID uuid.UUID        `json:"projectId"`
	TaskID    *uuid.UUID       `json:"taskId,omitempty"`
	Category  ResourceCategory `json:"category"`
	Hours     float64          `json:"hours"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// WeatherDelay records lost time on a given date. AffectedTaskIDs are loose
// references; they are not validated against the task table.
type WeatherDelay struct {
	ID              uuid.UUID   `json:"id"`
	ProjectID       uuid.UUID   `json:"projectId"`
	Date            time.Time   `json:"date"`
	WeatherType     string      `json:"weatherType"`
	HoursLost       float64     `json:"hoursLost"`
	Description     string      `json:"description,omitempty"`
	AffectedTaskIDs []uuid.UUID `json:"affectedTaskIds,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}
