package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"medchat/internal/llm"
)

// Options configures a Service.
type Options struct {
	Params llm.Params
	Format PromptFormat
	Labels Labels
	// InferTimeout bounds a single completion; zero means no limit.
	InferTimeout time.Duration
	Logger       zerolog.Logger
}

// Service ties sessions to the shared model.
type Service struct {
	store *Store
	model llm.Model
	opts  Options
	log   zerolog.Logger
}

// NewService wires store and model. The model should already be serialized
// (see llm.Gate) when Service is used concurrently.
func NewService(store *Store, model llm.Model, opts Options) *Service {
	if opts.Format == "" {
		opts.Format = FormatPlain
	}
	opts.Labels = opts.Labels.orDefault()
	return &Service{store: store, model: model, opts: opts, log: opts.Logger}
}

// Open returns the session for id, creating a new one when needed.
func (s *Service) Open(id string) (*Session, bool) {
	sess, created := s.store.Open(id)
	if created {
		sessionsCreated.Inc()
		s.log.Debug().Str("session", sess.ID).Msg("session created")
	}
	return sess, created
}

// Session looks up an existing session.
func (s *Service) Session(id string) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Submit runs one chat turn for session id.
func (s *Service) Submit(ctx context.Context, id, text string) (Turn, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Turn{}, err
	}
	turn, err := sess.Submit(ctx, text, s.complete)
	switch {
	case err == nil:
		submitsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrEmptyInput):
		submitsTotal.WithLabelValues("empty").Inc()
	case llm.IsTooBusy(err):
		submitsTotal.WithLabelValues("busy").Inc()
		s.log.Warn().Str("session", id).Msg("model busy")
	default:
		submitsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("session", id).Msg("inference failed")
	}
	return turn, err
}

// complete is the Completer handed to sessions.
func (s *Service) complete(ctx context.Context, turns []Turn) (string, error) {
	if s.opts.InferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.InferTimeout)
		defer cancel()
	}
	prompt := BuildPrompt(turns, s.opts.Format, s.opts.Labels)
	start := time.Now()
	res, err := s.model.Complete(ctx, prompt, s.opts.Params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	elapsed := time.Since(start)
	inferenceDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if err != nil {
		return "", err
	}
	s.log.Debug().
		Int("prompt_len", len(prompt)).
		Int("reply_len", len(res.Text)).
		Str("finish_reason", res.FinishReason).
		Dur("elapsed", elapsed).
		Msg("completion")
	return res.Text, nil
}

// Clear resets session id.
func (s *Service) Clear(id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.Clear()
	return nil
}

// Transcript returns a copy of the turns of session id.
func (s *Service) Transcript(id string) ([]Turn, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return sess.Turns(), nil
}

// Sessions reports live sessions.
func (s *Service) Sessions() int { return s.store.Len() }

// Close drops all sessions and closes the model.
func (s *Service) Close() error {
	s.store.Purge()
	if s.model == nil {
		return nil
	}
	return s.model.Close()
}
