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

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	events []events.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, ev events.Event) {
	n.events = append(n.events, ev)
}

// countingStore wraps a Store and counts critical-flag writes.
type countingStore struct {
	store.Store
	flagWrites int
}

func (c *countingStore) UpdateTaskCriticalFlags(ctx context.Context, markIDs, clearIDs []uuid.UUID) error {
	c.flagWrites++
	return c.Store.UpdateTaskCriticalFlags(ctx, markIDs, clearIDs)
}

func seedProject(t *testing.T, mem *store.MemoryStore) models.Project {
	t.Helper()
	return mem.PutProject(models.Project{Name: "Riverside Plant", Status: models.ProjectActive})
}

func seedTask(t *testing.T, mem *store.MemoryStore, projectID uuid.UUID, name string, duration int) models.Task {
	t.Helper()
	return mem.PutTask(models.Task{
		ProjectID:    projectID,
		Name:         name,
		DurationDays: duration,
		Status:       models.TaskNotStarted,
	})
}

func seedDependency(t *testing.T, mem *store.MemoryStore, taskID, dependsOn uuid.UUID, lag int) {
	t.Helper()
	_, err := mem.CreateDependency(context.Background(), store.DependencyInput{
		TaskID:          taskID,
		DependsOnTaskID: dependsOn,
		Type:            models.FinishToStart,
		LagDays:         lag,
	})
	require.NoError(t, err)
}

func TestRun_LinearChain(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	a := seedTask(t, mem, project.ID, "excavation", 5)
	b := seedTask(t, mem, project.ID, "foundations", 3)
	c := seedTask(t, mem, project.ID, "framing", 2)
	seedDependency(t, mem, b.ID, a.ID, 0)
	seedDependency(t, mem, c.ID, b.ID, 0)

	engine := schedule.NewEngine(mem, nil)
	result, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.ProjectDuration)
	assert.Equal(t, 0.0, result.Schedules[a.ID].EarliestStart)
	assert.Equal(t, 5.0, result.Schedules[a.ID].EarliestFinish)
	assert.Equal(t, 5.0, result.Schedules[b.ID].EarliestStart)
	assert.Equal(t, 8.0, result.Schedules[b.ID].EarliestFinish)
	assert.Equal(t, 8.0, result.Schedules[c.ID].EarliestStart)

	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		assert.Equal(t, 0.0, result.Schedules[id].Float, "float of %s", id)
		assert.True(t, result.Schedules[id].Critical)
	}
	assert.Len(t, result.CriticalTasks, 3)
	assert.Equal(t, "excavation", result.CriticalTasks[0].Name)
	assert.Equal(t, "framing", result.CriticalTasks[2].Name)
}

func TestRun_ParallelBranchSlack(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	long := seedTask(t, mem, project.ID, "structural steel", 5)
	short := seedTask(t, mem, project.ID, "site signage", 1)
	join := seedTask(t, mem, project.ID, "roofing", 2)
	seedDependency(t, mem, join.ID, long.ID, 0)
	seedDependency(t, mem, join.ID, short.ID, 0)

	engine := schedule.NewEngine(mem, nil)
	result, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, 7.0, result.ProjectDuration)
	assert.Equal(t, 4.0, result.Schedules[short.ID].Float)
	assert.False(t, result.Schedules[short.ID].Critical)
	assert.True(t, result.Schedules[long.ID].Critical)
	assert.True(t, result.Schedules[join.ID].Critical)
	assert.Len(t, result.CriticalTasks, 2)
}

func TestRun_LagShiftsSuccessor(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	pour := seedTask(t, mem, project.ID, "concrete pour", 2)
	strip := seedTask(t, mem, project.ID, "strip forms", 1)
	// 3-day cure before forms come off.
	seedDependency(t, mem, strip.ID, pour.ID, 3)

	engine := schedule.NewEngine(mem, nil)
	result, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, 5.0, result.Schedules[strip.ID].EarliestStart)
	assert.Equal(t, 6.0, result.ProjectDuration)
	assert.True(t, result.Schedules[pour.ID].Critical)
	assert.True(t, result.Schedules[strip.ID].Critical)
}

func TestRun_NegativeLagIsLead(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	a := seedTask(t, mem, project.ID, "drywall", 4)
	b := seedTask(t, mem, project.ID, "paint prep", 2)
	seedDependency(t, mem, b.ID, a.ID, -1)

	engine := schedule.NewEngine(mem, nil)
	result, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, 3.0, result.Schedules[b.ID].EarliestStart)
	assert.Equal(t, 5.0, result.ProjectDuration)
}

func TestRun_IdempotentFlagWrites(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	a := seedTask(t, mem, project.ID, "excavation", 5)
	b := seedTask(t, mem, project.ID, "foundations", 3)
	seedDependency(t, mem, b.ID, a.ID, 0)

	counting := &countingStore{Store: mem}
	engine := schedule.NewEngine(counting, nil)

	first, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.FlagsUpdated)
	assert.Equal(t, 1, counting.flagWrites)

	second, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FlagsUpdated)
	assert.Equal(t, 1, counting.flagWrites, "unchanged graph must not write")

	stored, err := mem.GetTask(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.OnCriticalPath)
}

func TestRun_PublishesCriticalPathEvent(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	seedTask(t, mem, project.ID, "excavation", 5)

	notifier := &recordingNotifier{}
	engine := schedule.NewEngine(mem, notifier)

	_, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, events.TypeCriticalPathChanged, notifier.events[0].Type)
	assert.Equal(t, project.ID, notifier.events[0].ProjectID)

	// Second run changes nothing, so no further events.
	_, err = engine.Run(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Len(t, notifier.events, 1)
}

func TestRun_EmptyProject(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)

	engine := schedule.NewEngine(mem, nil)
	result, err := engine.Run(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.ProjectDuration)
	assert.Empty(t, result.CriticalTasks)
	assert.Equal(t, 0, result.FlagsUpdated)
}

func TestRun_UnknownProject(t *testing.T) {
	engine := schedule.NewEngine(store.NewMemoryStore(), nil)
	_, err := engine.Run(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_CycleDetected(t *testing.T) {
	mem := store.NewMemoryStore()
	project := seedProject(t, mem)
	a := seedTask(t, mem, project.ID, "a", 1)
	b := seedTask(t, mem, project.ID, "b", 1)
	// Write the edges directly: AddDependency would refuse the second one.
	seedDependency(t, mem, b.ID, a.ID, 0)
	seedDependency(t, mem, a.ID, b.ID, 0)

	engine := schedule.NewEngine(mem, nil)
	_, err := engine.Run(context.Background(), project.ID)
	assert.ErrorIs(t, err, schedule.ErrDependencyCycle)
}
