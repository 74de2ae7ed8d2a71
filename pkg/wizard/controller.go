package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/form"
	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/predict"
	"github.com/goliatone/go-homeval/pkg/submission"
	"github.com/goliatone/go-homeval/pkg/validation"
)

// MsgPrepareFailed is shown when the feature vector cannot be derived.
const MsgPrepareFailed = "Unable to prepare the prediction request."

// Phase is the coarse state of the controller.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseSubmitting
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResult:
		return "result"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Recorder receives successful predictions. *history.Store satisfies it.
type Recorder interface {
	Append(ctx context.Context, rec model.PredictionRecord) (bool, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithValidator overrides the validator built from the schema.
func WithValidator(v *validation.Validator) Option {
	return func(c *Controller) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithHistory appends successful predictions to r.
func WithHistory(r Recorder) Option {
	return func(c *Controller) {
		c.history = r
	}
}

// WithRecordBuilder overrides how records are assembled.
func WithRecordBuilder(b *submission.RecordBuilder) Option {
	return func(c *Controller) {
		if b != nil {
			c.records = b
		}
	}
}

// WithLogger attaches a logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrefill seeds raw values, e.g. from a previous prediction.
func WithPrefill(values map[string]string) Option {
	return func(c *Controller) {
		c.prefill = values
	}
}

// State is a point-in-time copy of everything a view needs.
type State struct {
	Index       int
	Step        model.Step
	StepCount   int
	Phase       Phase
	Values      map[string]string
	Errors      model.Errors
	SubmitError string
	Result      *model.PredictionRecord
}

// Controller drives one form instance. It is safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	schema     model.Schema
	client     predict.Client
	validator  *validation.Validator
	history    Recorder
	records    *submission.RecordBuilder
	logger     *zap.Logger
	prefill    map[string]string
	form       *form.Store
	index      int
	phase      Phase
	inFlight   bool
	generation uint64
	closed     bool
	result     *model.PredictionRecord
}

// New builds a controller positioned on the first step.
func New(schema model.Schema, client predict.Client, opts ...Option) (*Controller, error) {
	if client == nil {
		return nil, errors.New("wizard: prediction client is required")
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}
	c := &Controller{
		schema: schema,
		client: client,
		logger: zap.L(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.validator == nil {
		c.validator = validation.New(schema)
	}
	if c.records == nil {
		c.records = submission.NewRecordBuilder()
	}
	c.form = form.NewStore(schema, c.validator, c.prefill)
	return c, nil
}

// Schema returns the schema driving the controller.
func (c *Controller) Schema() model.Schema {
	return c.schema
}

// State returns a snapshot for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Index:       c.index,
		Step:        c.schema.Steps[c.index],
		StepCount:   len(c.schema.Steps),
		Phase:       c.phase,
		Values:      c.form.Values(),
		Errors:      c.form.Errors(),
		SubmitError: c.form.SubmitError(),
	}
	if c.result != nil {
		rec := *c.result
		st.Result = &rec
	}
	return st
}

// Index returns the active step index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Result returns the record of the last successful prediction.
func (c *Controller) Result() (model.PredictionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return model.PredictionRecord{}, false
	}
	return *c.result, true
}

// Set writes a raw value and returns the field's validation message.
func (c *Controller) Set(name, raw string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	if c.inFlight {
		return "", ErrSubmissionInFlight
	}
	return c.form.Set(name, raw)
}

// Check validates raw for name against the current values without storing
// it, so a view can reject input before it reaches the form.
func (c *Controller) Check(name, raw string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Check(name, raw)
}

// Next validates the active step. On any failure the index is unchanged and
// exactly the failing fields carry errors. On an earlier step the index
// advances; on the last step the form is submitted and the controller enters
// the result phase only when the prediction succeeds. If an earlier step has
// become invalid by then, the index moves to it instead of submitting.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkActionable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.phase == PhaseResult {
		c.mu.Unlock()
		return ErrComplete
	}

	step := c.schema.Steps[c.index]
	if !c.form.ValidateFields(step.Fields) {
		c.mu.Unlock()
		return ErrStepInvalid
	}
	if c.index < c.schema.LastStep() {
		c.index++
		c.mu.Unlock()
		return nil
	}
	defer c.mu.Unlock()
	return c.submitLocked(ctx)
}

// submitLocked is entered and left with c.mu held; the lock is released
// while the remote call is outstanding.
func (c *Controller) submitLocked(ctx context.Context) error {
	// Earlier steps were checked when they were left, but a value can be
	// changed from elsewhere; move back to the first step that no longer
	// passes so its errors are the ones on screen.
	for i, step := range c.schema.Steps[:c.index] {
		if !c.form.ValidateFields(step.Fields) {
			c.index = i
			return ErrStepInvalid
		}
	}
	features, err := submission.BuildFeatureVector(c.schema, c.form.Values())
	if err != nil {
		c.form.SetSubmitError(MsgPrepareFailed)
		c.logger.Warn("feature vector rejected", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	c.form.SetSubmitError("")
	c.inFlight = true
	c.phase = PhaseSubmitting
	generation := c.generation

	c.mu.Unlock()
	result, callErr := c.client.Predict(ctx, features)
	c.mu.Lock()

	if c.closed || generation != c.generation {
		c.logger.Debug("discarding stale prediction response")
		return ErrStaleResponse
	}
	c.inFlight = false

	if callErr != nil {
		c.phase = PhaseEditing
		c.form.SetSubmitError(predict.UserMessage(callErr))
		c.logger.Warn("prediction failed", zap.Error(callErr))
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, callErr)
	}

	rec, err := c.records.Build(features, result)
	if err != nil {
		c.phase = PhaseEditing
		c.form.SetSubmitError(MsgPrepareFailed)
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	c.result = &rec
	c.phase = PhaseResult
	c.logger.Info("prediction completed",
		zap.String("id", rec.ID),
		zap.Float64("price", rec.PredictedPrice),
		zap.String("currency", rec.Currency),
	)

	if c.history == nil {
		return nil
	}
	if _, err := c.history.Append(ctx, rec); err != nil {
		c.logger.Error("prediction not saved to history", zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrHistoryNotSaved, err)
	}
	return nil
}

// Back moves to the previous step without validation. From the result phase
// it returns to the last step with all values intact.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActionable(); err != nil {
		return err
	}
	if c.phase == PhaseResult {
		c.phase = PhaseEditing
		c.result = nil
		return nil
	}
	if c.index == 0 {
		return ErrAtFirstStep
	}
	c.index--
	return nil
}

// Reset starts a new prediction: values and errors are cleared, the index
// returns to 0 and any outstanding response is discarded when it arrives.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.inFlight = false
	c.phase = PhaseEditing
	c.index = 0
	c.result = nil
	c.form.Reset()
}

// Close detaches the controller from its view. Later calls fail with
// ErrClosed and outstanding responses are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.inFlight = false
}

func (c *Controller) checkActionable() error {
	if c.closed {
		return ErrClosed
	}
	if c.inFlight {
		return ErrSubmissionInFlight
	}
	return nil
}
