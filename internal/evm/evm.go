// Package evm computes earned-value metrics for a project as of an explicit
// reference date. Callers pass the date rather than the calculator reading the
// wall clock, so results are reproducible.
package evm

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/buildledger/scheduling/internal/dateutil"
	"github.com/buildledger/scheduling/internal/models"
	"github.com/buildledger/scheduling/internal/store"
)

// Metrics holds the seven standard earned-value figures, rounded to cents.
type Metrics struct {
	ProjectID uuid.UUID `json:"projectId"`
	AsOf      time.Time `json:"asOf"`
	BCWS      float64   `json:"bcws"` // budgeted cost of work scheduled
	BCWP      float64   `json:"bcwp"` // budgeted cost of work performed (earned value)
	ACWP      float64   `json:"acwp"` // actual cost of work performed
	CPI       float64   `json:"cpi"`  // cost performance index
	SPI       float64   `json:"spi"`  // schedule performance index
	EAC       float64   `json:"eac"`  // estimate at completion
	ETC       float64   `json:"etc"`  // estimate to complete
	VAC       float64   `json:"vac"`  // variance at completion
}

type Calculator struct {
	store store.Store
}

func NewCalculator(st store.Store) *Calculator {
	return &Calculator{store: st}
}

// Calculate returns the project's earned-value metrics as of the given date.
// Every ratio guards its denominator: CPI is 0 when nothing has been spent,
// SPI is 0 when nothing was scheduled, EAC is 0 when CPI is 0.
func (c *Calculator) Calculate(ctx context.Context, projectID uuid.UUID, asOf time.Time) (Metrics, error) {
	project, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return Metrics{}, err
	}
	tasks, err := c.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return Metrics{}, err
	}

	asOf = dateutil.Truncate(asOf)
	m := Metrics{ProjectID: project.ID, AsOf: asOf}

	for _, t := range tasks {
		m.ACWP += t.ActualCost
		m.BCWP += t.BudgetCost * t.PercentComplete / 100
		m.BCWS += scheduledCost(t, asOf)
	}

	if m.ACWP != 0 {
		m.CPI = m.BCWP / m.ACWP
	}
	if m.BCWS != 0 {
		m.SPI = m.BCWP / m.BCWS
	}
	// EAC divides the project-level budget by task-level CPI; the two budget
	// figures are maintained separately and are not reconciled here.
	if m.CPI != 0 {
		m.EAC = project.BudgetedCost / m.CPI
	}
	m.ETC = math.Max(0, m.EAC-m.ACWP)
	m.VAC = project.BudgetedCost - m.EAC

	m.BCWS = round2(m.BCWS)
	m.BCWP = round2(m.BCWP)
	m.ACWP = round2(m.ACWP)
	m.CPI = round2(m.CPI)
	m.SPI = round2(m.SPI)
	m.EAC = round2(m.EAC)
	m.ETC = round2(m.ETC)
	m.VAC = round2(m.VAC)
	return m, nil
}

// scheduledCost is the portion of a task's budget that should have been spent
// by asOf: the full budget once the planned end has passed, a linear
// pro-ration while the task window is open, and 0 for tasks not yet started
// or with no dates to pro-rate over.
func scheduledCost(t models.Task, asOf time.Time) float64 {
	if t.EndDate != nil && !dateutil.Truncate(*t.EndDate).After(asOf) {
		return t.BudgetCost
	}
	if t.StartDate == nil || dateutil.Truncate(*t.StartDate).After(asOf) || t.EndDate == nil {
		return 0
	}
	total := dateutil.DaysBetween(*t.StartDate, *t.EndDate)
	if total <= 0 {
		return t.BudgetCost
	}
	elapsed := dateutil.DaysBetween(*t.StartDate, asOf)
	return t.BudgetCost * math.Min(1, float64(elapsed)/float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
