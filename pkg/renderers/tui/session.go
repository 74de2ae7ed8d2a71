package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/model"
	"github.com/goliatone/go-homeval/pkg/wizard"
)

const (
	choiceNext   = "Next"
	choiceSubmit = "Get prediction"
	choiceBack   = "Back"
	choiceCancel = "Cancel"
	choiceNew    = "New prediction"
	choiceEdit   = "Edit inputs"
	choiceQuit   = "Quit"
	choiceDone   = "Done"
)

// HistoryEditor is the part of the history store the review screen needs.
type HistoryEditor interface {
	Records() []model.PredictionRecord
	MarkForDelete(id string) error
	CancelDelete()
	ConfirmDelete(ctx context.Context) (model.PredictionRecord, error)
}

// Session drives a wizard.Controller and a history store through a prompt
// driver.
type Session struct {
	driver PromptDriver
	theme  Theme
	logger *zap.Logger
}

// NewSession constructs a session with defaults (survey driver, default theme).
func NewSession(options ...Option) *Session {
	s := &Session{
		theme:  DefaultTheme(),
		logger: zap.L(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// RunWizard walks the steps of ctrl until the user quits. It returns the most
// recent successful prediction, or ErrCancelled when the user leaves before
// any prediction completed.
func (s *Session) RunWizard(ctx context.Context, ctrl *wizard.Controller) (model.PredictionRecord, error) {
	if ctrl == nil {
		return model.PredictionRecord{}, errors.New("tui: controller is required")
	}

	var (
		last    model.PredictionRecord
		hasLast bool
	)
	finish := func() (model.PredictionRecord, error) {
		if !hasLast {
			return last, ErrCancelled
		}
		return last, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		state := ctrl.State()

		if state.Phase == wizard.PhaseResult && state.Result != nil {
			last, hasLast = *state.Result, true
			s.panel(ctx, ResultLines(last))
			choice, err := s.choose(ctx, "What next?", choiceNew, choiceEdit, choiceQuit)
			if err != nil {
				return last, err
			}
			switch choice {
			case choiceNew:
				ctrl.Reset()
			case choiceEdit:
				if err := ctrl.Back(); err != nil {
					return last, err
				}
			default:
				return finish()
			}
			continue
		}

		if err := s.promptStep(ctx, ctrl, state); err != nil {
			return last, err
		}

		choices := []string{choiceNext}
		if state.Index == state.StepCount-1 {
			choices[0] = choiceSubmit
		}
		if state.Index > 0 {
			choices = append(choices, choiceBack)
		}
		choices = append(choices, choiceCancel)

		choice, err := s.choose(ctx, fmt.Sprintf("Step %d of %d", state.Index+1, state.StepCount), choices...)
		if err != nil {
			return last, err
		}
		switch choice {
		case choiceBack:
			if err := ctrl.Back(); err != nil {
				return last, err
			}
		case choiceCancel:
			return finish()
		default:
			if err := s.advance(ctx, ctrl, choice == choiceSubmit); err != nil {
				return last, err
			}
		}
	}
}

// advance calls Next and reports recoverable failures; only unrecoverable
// errors are returned.
func (s *Session) advance(ctx context.Context, ctrl *wizard.Controller, submitting bool) error {
	if submitting {
		s.muted(ctx, "Requesting prediction...")
	}
	err := ctrl.Next(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wizard.ErrStepInvalid):
		state := ctrl.State()
		for _, name := range state.Step.Fields {
			if msg, ok := state.Errors[name]; ok {
				s.fail(ctx, fieldMessage(ctrl.Schema(), name, msg))
			}
		}
		return nil
	case errors.Is(err, wizard.ErrSubmissionFailed):
		s.fail(ctx, ctrl.State().SubmitError)
		return nil
	case errors.Is(err, wizard.ErrHistoryNotSaved):
		s.logger.Warn("prediction not saved", zap.Error(err))
		s.fail(ctx, "The prediction could not be saved to history.")
		return nil
	default:
		return err
	}
}

func (s *Session) promptStep(ctx context.Context, ctrl *wizard.Controller, state wizard.State) error {
	s.title(ctx, fmt.Sprintf("Step %d of %d: %s", state.Index+1, state.StepCount, state.Step.Label))
	schema := ctrl.Schema()
	for _, name := range state.Step.Fields {
		spec, ok := schema.Field(name)
		if !ok {
			return fmt.Errorf("tui: step %q references unknown field %q", state.Step.Label, name)
		}
		if err := s.promptField(ctx, ctrl, spec, state.Values[name]); err != nil {
			return err
		}
	}
	return nil
}

// promptField re-prompts until the controller accepts the value.
func (s *Session) promptField(ctx context.Context, ctrl *wizard.Controller, spec model.FieldSpec, current string) error {
	for {
		raw, err := s.ask(ctx, ctrl, spec, current)
		if err != nil {
			return err
		}
		msg, err := ctrl.Set(spec.Name, raw)
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		s.fail(ctx, fmt.Sprintf("%s: %s", spec.DisplayLabel(), msg))
		current = raw
	}
}

func (s *Session) ask(ctx context.Context, ctrl *wizard.Controller, spec model.FieldSpec, current string) (string, error) {
	label := spec.DisplayLabel()
	if spec.Required {
		label += " *"
	}

	if spec.Kind == model.FieldKindEnumerated && len(spec.Options) > 0 {
		options := make([]string, 0, len(spec.Options))
		for _, opt := range spec.Options {
			options = append(options, optionLabel(opt))
		}
		selected := current
		if selected == "" {
			selected = spec.Default
		}
		defaultIdx := indexOf(spec.OptionValues(), selected)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         spec.Help,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(spec.Options) {
			return "", nil
		}
		return spec.Options[idx].Value, nil
	}

	return s.driver.Input(ctx, InputConfig{
		Message: label,
		Default: current,
		Help:    spec.Help,
		Validator: func(raw string) error {
			if msg := ctrl.Check(spec.Name, raw); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	})
}

// ReviewHistory lists saved predictions and deletes the ones the user picks
// after an explicit confirmation.
func (s *Session) ReviewHistory(ctx context.Context, store HistoryEditor) error {
	if store == nil {
		return errors.New("tui: history store is required")
	}
	for {
		records := store.Records()
		if len(records) == 0 {
			s.muted(ctx, "No predictions yet.")
			return nil
		}

		// numbered so identical summaries stay distinguishable
		options := make([]string, 0, len(records)+1)
		for i, rec := range records {
			options = append(options, fmt.Sprintf("%d. %s", i+1, RecordSummary(rec)))
		}
		options = append(options, choiceDone)

		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      "Select a prediction to delete",
			Options:      options,
			DefaultIndex: len(options) - 1,
			PageSize:     10,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(records) {
			return nil
		}

		rec := records[idx]
		if err := store.MarkForDelete(rec.ID); err != nil {
			s.fail(ctx, "This prediction cannot be deleted.")
			s.logger.Debug("mark for delete failed", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: "Delete the prediction from " + RecordSummary(rec) + "?",
		})
		if err != nil {
			store.CancelDelete()
			return err
		}
		if !ok {
			store.CancelDelete()
			continue
		}
		if _, err := store.ConfirmDelete(ctx); err != nil {
			s.fail(ctx, "Unable to delete the prediction.")
			s.logger.Warn("confirm delete failed", zap.String("id", rec.ID), zap.Error(err))
			store.CancelDelete()
			continue
		}
		s.success(ctx, "Prediction deleted.")
	}
}

func (s *Session) choose(ctx context.Context, message string, choices ...string) (string, error) {
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      choices,
		DefaultIndex: 0,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(choices) {
		return choices[len(choices)-1], nil
	}
	return choices[idx], nil
}

func (s *Session) title(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, s.theme.Title.Render(msg))
}

func (s *Session) muted(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, s.theme.Muted.Render(msg))
}

func (s *Session) fail(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, s.theme.Error.Render(s.theme.ErrorPrefix+msg))
}

func (s *Session) success(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, s.theme.Success.Render(msg))
}

func (s *Session) panel(ctx context.Context, lines []string) {
	_ = s.driver.Info(ctx, s.theme.Panel.Render(strings.Join(lines, "\n")))
}

func optionLabel(opt model.Option) string {
	if opt.Label == "" {
		return opt.Value
	}
	return opt.Label
}

func fieldMessage(schema model.Schema, name, msg string) string {
	if spec, ok := schema.Field(name); ok {
		return spec.DisplayLabel() + ": " + msg
	}
	return name + ": " + msg
}
