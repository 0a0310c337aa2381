package simulate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meikuraledutech/flow"
)

var (
	validUser   = User{Name: "Taylor", Email: "taylor@example.com", Age: 30, Region: "EU"}
	invalidUser = User{Name: "Sam", Email: "invalid-email", Age: 12, Region: "US"}
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func newTestSimulator(t *testing.T, users ...User) (*Simulator, *Board) {
	t.Helper()
	board := NewBoard()
	sim := New(Config{
		Users:     NewFixedUsers(users...),
		Publisher: board,
		Now:       fixedClock(),
		Logger:    zap.NewNop(),
	})
	return sim, board
}

func states(run Run) []State {
	out := make([]State, 0, len(run.Transitions))
	for _, tr := range run.Transitions {
		out = append(out, tr.State)
	}
	return out
}

func TestExecute_ValidUserReachesEmail(t *testing.T) {
	sim, board := newTestSimulator(t)

	run, err := sim.Execute(context.Background(), validUser)
	require.NoError(t, err)

	assert.True(t, run.Done)
	assert.Equal(t, StateEmailed, run.State)
	assert.Equal(t, []State{
		StateRegistered, StateValidating, StateValid, StateRegionProcessed, StateEmailed,
	}, states(run))

	_, touched := board.Get(StageError)
	assert.False(t, touched, "error stage must not publish on the success branch")

	region, ok := board.Get(StageRegion)
	require.True(t, ok)
	assert.Equal(t, "GDPR Required", region.RegionPolicy)

	email, ok := board.Get(StageEmail)
	require.True(t, ok)
	assert.Equal(t, "Dear Taylor,\nWelcome to our EU community!", email.WelcomeMessage)
	assert.Equal(t, run.ID, email.RunID)
	assert.False(t, email.Timestamp.IsZero())
}

func TestExecute_InvalidUserReachesErrorHandler(t *testing.T) {
	sim, board := newTestSimulator(t)

	run, err := sim.Execute(context.Background(), invalidUser)
	require.NoError(t, err)

	assert.Equal(t, StateErrorHandled, run.State)
	assert.Equal(t, []State{
		StateRegistered, StateValidating, StateInvalid, StateErrorHandled,
	}, states(run))
	require.NotNil(t, run.Validation)
	assert.Equal(t, []string{MsgInvalidEmail, MsgUnderage}, run.Validation.Errors)

	rec, ok := board.Get(StageError)
	require.True(t, ok)
	assert.Equal(t, FailedAtValidation, rec.FailedAt)
	assert.Equal(t, []string{MsgInvalidEmail, MsgUnderage}, rec.Validation.Errors)

	_, touched := board.Get(StageRegion)
	assert.False(t, touched)
	_, touched = board.Get(StageEmail)
	assert.False(t, touched)
}

func TestExecute_ClearsPreviousRun(t *testing.T) {
	sim, board := newTestSimulator(t)

	_, err := sim.Execute(context.Background(), validUser)
	require.NoError(t, err)
	_, err = sim.Execute(context.Background(), invalidUser)
	require.NoError(t, err)

	records := board.Records()
	assert.Contains(t, records, StageError)
	assert.NotContains(t, records, StageEmail)
	assert.NotContains(t, records, StageRegion)
}

func TestSubmit_RejectsWhileRunning(t *testing.T) {
	board := NewBoard()
	sim := New(Config{
		Users:     NewFixedUsers(validUser),
		Publisher: board,
		Delays:    Delays{Validation: 200 * time.Millisecond},
	})

	run, err := sim.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateRegistered, run.State)
	assert.False(t, run.Done)

	_, err = sim.Submit(context.Background())
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, sim.Reset(), ErrBusy)

	sim.Wait()

	last, ok := sim.Last()
	require.True(t, ok)
	assert.True(t, last.Done)
	assert.Equal(t, StateEmailed, last.State)

	_, err = sim.Submit(context.Background())
	require.NoError(t, err)
	sim.Wait()
}

func TestSubmit_SurvivesCallerCancel(t *testing.T) {
	sim := New(Config{
		Users:  NewFixedUsers(validUser),
		Delays: Delays{Validation: 10 * time.Millisecond, Branch: 10 * time.Millisecond},
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := sim.Submit(ctx)
	require.NoError(t, err)
	cancel()
	sim.Wait()

	last, ok := sim.Last()
	require.True(t, ok)
	assert.Equal(t, StateEmailed, last.State)
}

func TestExecute_CancelledContextStopsWalk(t *testing.T) {
	sim := New(Config{Delays: Delays{Validation: time.Hour}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := sim.Execute(ctx, validUser)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateRegistered, run.State)
	assert.True(t, run.Done)
}

func TestExecute_FollowsPipelineEdges(t *testing.T) {
	// Without the success edge the run stops after validation.
	pipeline := ReferencePipeline()
	pipeline, ok := pipeline.DeleteNode(StageRegion)
	require.True(t, ok)

	board := NewBoard()
	sim := New(Config{Pipeline: &pipeline, Publisher: board})

	run, err := sim.Execute(context.Background(), validUser)
	require.NoError(t, err)
	assert.Equal(t, StateValid, run.State)
	assert.True(t, run.Done)
	_, touched := board.Get(StageEmail)
	assert.False(t, touched)
}

func TestExecute_UntypedCycleStops(t *testing.T) {
	pipeline := flow.Graph{
		Nodes: []flow.Node{
			{ID: StageRegistration, Type: StageRegistration},
			{ID: "a", Type: "custom"},
			{ID: "b", Type: "custom"},
		},
		Edges: []flow.Edge{
			{ID: "e1", Source: StageRegistration, Target: "a", SourceHandle: PortOut},
			{ID: "e2", Source: "a", Target: "b", SourceHandle: flow.DefaultSourceHandle},
			{ID: "e3", Source: "b", Target: "a", SourceHandle: flow.DefaultSourceHandle},
		},
	}
	sim := New(Config{Pipeline: &pipeline})

	run, err := sim.Execute(context.Background(), validUser)
	require.ErrorIs(t, err, ErrCycle)
	assert.True(t, run.Done)

	// The simulator is free for the next run.
	_, err = sim.Execute(context.Background(), validUser)
	require.ErrorIs(t, err, ErrCycle)
}

func TestExecute_NoStartNode(t *testing.T) {
	empty := flow.Graph{}
	sim := New(Config{Pipeline: &empty})

	_, err := sim.Execute(context.Background(), validUser)
	require.ErrorIs(t, err, ErrNoStart)
}

func TestReset(t *testing.T) {
	sim, board := newTestSimulator(t)
	_, err := sim.Execute(context.Background(), validUser)
	require.NoError(t, err)

	require.NoError(t, sim.Reset())
	assert.Empty(t, board.Records())
	_, ok := sim.Last()
	assert.False(t, ok)
}
