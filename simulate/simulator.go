package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/meikuraledutech/flow"
)

var (
	// ErrBusy is returned when a run is submitted while another is still in flight.
	ErrBusy = errors.New("simulate: a run is already in progress")

	// ErrNoStart is returned when the pipeline has no registration node.
	ErrNoStart = errors.New("simulate: pipeline has no start node")

	// ErrCycle is returned when a walk visits more nodes than the pipeline holds.
	ErrCycle = errors.New("simulate: pipeline walk does not terminate")
)

// State is a step of the run state machine.
type State string

const (
	StateRegistered      State = "REGISTERED"
	StateValidating      State = "VALIDATING"
	StateValid           State = "VALID"
	StateInvalid         State = "INVALID"
	StateRegionProcessed State = "REGION_PROCESSED"
	StateEmailed         State = "EMAILED"
	StateErrorHandled    State = "ERROR_HANDLED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateEmailed || s == StateErrorHandled
}

// Transition is a timestamped state change.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// Run is the history of one simulated registration.
type Run struct {
	ID          string       `json:"id"`
	User        User         `json:"user"`
	State       State        `json:"state"`
	Transitions []Transition `json:"transitions"`
	Validation  *Validation  `json:"validation,omitempty"`
	Done        bool         `json:"done"`
}

// Delays are the pauses before each stage. They only animate the pipeline; zero is allowed.
type Delays struct {
	Validation time.Duration `yaml:"validation"`
	Branch     time.Duration `yaml:"branch"`
	Email      time.Duration `yaml:"email"`
}

// DefaultDelays match the pacing of the editor animation.
var DefaultDelays = Delays{
	Validation: 400 * time.Millisecond,
	Branch:     600 * time.Millisecond,
	Email:      700 * time.Millisecond,
}

// Config wires a Simulator. Zero fields fall back to defaults; zero Delays means no pauses.
type Config struct {
	// Pipeline defaults to ReferencePipeline.
	Pipeline  *flow.Graph
	Users     UserSource
	Publisher Publisher
	Delays    Delays
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Simulator walks the pipeline for one user at a time.
type Simulator struct {
	pipeline flow.Graph
	users    UserSource
	pub      Publisher
	delays   Delays
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	last    *Run
	wg      sync.WaitGroup
}

// New returns a simulator for cfg.
func New(cfg Config) *Simulator {
	s := &Simulator{
		users:  cfg.Users,
		pub:    cfg.Publisher,
		delays: cfg.Delays,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
	if cfg.Pipeline != nil {
		s.pipeline = cfg.Pipeline.Clone()
	} else {
		s.pipeline = ReferencePipeline()
	}
	if s.users == nil {
		s.users = NewRandomUsers(uint64(time.Now().UnixNano()), cfg.Now)
	}
	if s.pub == nil {
		s.pub = NewBoard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Pipeline returns a copy of the graph the simulator walks.
func (s *Simulator) Pipeline() flow.Graph {
	return s.pipeline.Clone()
}

// Submit registers the next user from the source and finishes the run in the background.
// The run is detached from ctx cancellation and always completes its reachable stages.
func (s *Simulator) Submit(ctx context.Context) (Run, error) {
	start, err := s.startNode()
	if err != nil {
		return Run{}, err
	}
	if err := s.begin(); err != nil {
		return Run{}, err
	}

	run := s.register(s.users.Next())
	snapshot := s.snapshot(run)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.end()
		if err := s.walk(context.WithoutCancel(ctx), run, start); err != nil {
			s.logger.Error("simulation aborted", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	return snapshot, nil
}

// Execute runs the pipeline for u synchronously and returns the finished run.
func (s *Simulator) Execute(ctx context.Context, u User) (Run, error) {
	start, err := s.startNode()
	if err != nil {
		return Run{}, err
	}
	if err := s.begin(); err != nil {
		return Run{}, err
	}
	defer s.end()

	run := s.register(u)
	if err := s.walk(ctx, run, start); err != nil {
		return s.snapshot(run), err
	}
	return s.snapshot(run), nil
}

// Wait blocks until the background run, if any, has finished.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

// Last returns the most recent run.
func (s *Simulator) Last() (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Run{}, false
	}
	return copyRun(s.last), true
}

// Reset clears published records and the last run. It fails while a run is in flight.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	s.last = nil
	s.pub.Reset()
	return nil
}

func (s *Simulator) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrBusy
	}
	s.running = true
	return nil
}

func (s *Simulator) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *Simulator) startNode() (string, error) {
	for _, n := range s.pipeline.Nodes {
		if n.Type == StageRegistration {
			return n.ID, nil
		}
	}
	return "", ErrNoStart
}

// register starts a run: earlier records are cleared and the registration record is published.
func (s *Simulator) register(u User) *Run {
	run := &Run{ID: ulid.Make().String(), User: u}

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()

	s.pub.Reset()
	s.transition(run, StateRegistered)
	user := u
	s.publish(Record{RunID: run.ID, Stage: StageRegistration, User: &user})
	return run
}

// walk follows the pipeline edges from the start node until a node has no successor.
func (s *Simulator) walk(ctx context.Context, run *Run, start string) error {
	user := run.User
	var (
		validation Validation
		region     RegionResult
	)

	current := start
	for step := 0; ; step++ {
		if step >= len(s.pipeline.Nodes) {
			s.finish(run)
			return fmt.Errorf("%w: stopped at %q after %d steps", ErrCycle, current, step)
		}
		node, ok := s.pipeline.Node(current)
		if !ok {
			return fmt.Errorf("simulate: pipeline references missing node %q", current)
		}

		var handle string
		switch node.Type {
		case StageRegistration:
			handle = PortOut

		case StageValidation:
			s.transition(run, StateValidating)
			validation = Validate(user)
			v := validation
			u := user
			s.publish(Record{RunID: run.ID, Stage: node.ID, User: &u, Validation: &v})

			s.mu.Lock()
			run.Validation = &v
			s.mu.Unlock()

			if validation.Valid() {
				s.transition(run, StateValid)
				handle = PortSuccess
			} else {
				s.transition(run, StateInvalid)
				handle = PortError
			}

		case StageError:
			out := HandleError(user, validation)
			s.publish(Record{
				RunID:      run.ID,
				Stage:      node.ID,
				Validation: &out.Validation,
				FailedAt:   out.FailedAt,
			})
			s.transition(run, StateErrorHandled)

		case StageRegion:
			region = ProcessRegion(user)
			u := user
			s.publish(Record{RunID: run.ID, Stage: node.ID, User: &u, RegionPolicy: region.RegionPolicy})
			s.transition(run, StateRegionProcessed)
			handle = PortOut

		case StageEmail:
			email := SendEmail(region)
			u := email.User
			s.publish(Record{
				RunID:          run.ID,
				Stage:          node.ID,
				User:           &u,
				RegionPolicy:   email.RegionPolicy,
				WelcomeMessage: email.WelcomeMessage,
			})
			s.transition(run, StateEmailed)

		default:
			s.logger.Warn("pipeline node without stage skipped",
				zap.String("node_id", node.ID),
				zap.String("type", node.Type),
			)
			handle = flow.DefaultSourceHandle
		}

		next, ok := s.pipeline.Next(current, handle)
		if handle == "" || !ok {
			s.finish(run)
			return nil
		}
		if err := s.wait(ctx, s.delayBefore(next)); err != nil {
			s.finish(run)
			return err
		}
		current = next
	}
}

func (s *Simulator) delayBefore(nodeID string) time.Duration {
	node, _ := s.pipeline.Node(nodeID)
	switch node.Type {
	case StageValidation:
		return s.delays.Validation
	case StageError, StageRegion:
		return s.delays.Branch
	case StageEmail:
		return s.delays.Email
	}
	return 0
}

func (s *Simulator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Simulator) transition(run *Run, state State) {
	s.mu.Lock()
	run.State = state
	run.Transitions = append(run.Transitions, Transition{State: state, At: s.now().UTC()})
	s.mu.Unlock()

	s.logger.Debug("simulation transition",
		zap.String("run_id", run.ID),
		zap.String("state", string(state)),
	)
}

func (s *Simulator) publish(r Record) {
	r.Timestamp = s.now().UTC()
	s.pub.Publish(r)
	s.logger.Info("stage completed",
		zap.String("run_id", r.RunID),
		zap.String("stage", r.Stage),
	)
}

func (s *Simulator) finish(run *Run) {
	s.mu.Lock()
	run.Done = true
	s.mu.Unlock()
	s.logger.Info("simulation finished",
		zap.String("run_id", run.ID),
		zap.String("state", string(run.State)),
	)
}

func (s *Simulator) snapshot(run *Run) Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRun(run)
}

func copyRun(r *Run) Run {
	out := *r
	out.Transitions = append([]Transition(nil), r.Transitions...)
	if r.Validation != nil {
		v := Validation{Errors: append([]string{}, r.Validation.Errors...)}
		out.Validation = &v
	}
	return out
}
