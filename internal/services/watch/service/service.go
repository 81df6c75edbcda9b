// Package service runs one polling state machine per detected code field
//
// Every method that touches session state runs on the loop. Public entry points
// post to the loop, so they are safe from any goroutine
package service

import (
	"context"
	"time"

	"codefill/internal/core/extract"
	perr "codefill/internal/platform/errors"
	"codefill/internal/platform/logger"
	"codefill/internal/platform/loop"
	"codefill/internal/services/watch/domain"

	"github.com/google/uuid"
)

// Config holds the coordinator timings
type Config struct {
	PollInterval   time.Duration
	SuggestTimeout time.Duration
	RescanDelay    time.Duration
	FindTimeout    time.Duration
	AuthTimeout    time.Duration
}

// DefaultConfig is the stock cadence: poll every 5s, suggestions live 30s, rescan 1s after sign-in
func DefaultConfig() Config {
	return Config{
		PollInterval:   5 * time.Second,
		SuggestTimeout: 30 * time.Second,
		RescanDelay:    time.Second,
		FindTimeout:    15 * time.Second,
		AuthTimeout:    2 * time.Minute,
	}
}

// Deps are the collaborators a coordinator drives
type Deps struct {
	Sched  loop.Scheduler
	Finder domain.Finder
	Auth   domain.Authenticator
	Host   domain.Host
	UI     domain.Presenter
	Flag   domain.AuthFlag
	Log    *logger.Logger
}

// Svc is the field watch coordinator
type Svc struct {
	cfg  Config
	deps Deps
	log  *logger.Logger

	rescanner domain.Rescanner
	observers []func(domain.Transition)

	sessions map[string]*session
	nextTok  uint64

	rescanTimer   loop.Timer
	rescanRelease []string

	unsub   func()
	stopped bool
}

type session struct {
	id      string
	field   string
	domain  string
	state   domain.State
	outcome domain.Outcome
	started time.Time

	attempts int
	code     string

	// inflight is the token of the outstanding lookup; 0 when none
	inflight uint64
	timer    loop.Timer
	ctx      context.Context
	cancel   context.CancelFunc

	widget     domain.Widget
	authWidget domain.AuthWidget
	authing    bool
}

// New builds a coordinator; call Start to begin reacting to auth flag changes
func New(cfg Config, deps Deps) *Svc {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SuggestTimeout <= 0 {
		cfg.SuggestTimeout = def.SuggestTimeout
	}
	if cfg.RescanDelay <= 0 {
		cfg.RescanDelay = def.RescanDelay
	}
	if cfg.FindTimeout <= 0 {
		cfg.FindTimeout = def.FindTimeout
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = def.AuthTimeout
	}
	log := deps.Log
	if log == nil {
		log = logger.Named("watch")
	}
	return &Svc{
		cfg:      cfg,
		deps:     deps,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// SetRescanner wires the page scanner used after a successful sign-in
func (s *Svc) SetRescanner(r domain.Rescanner) { s.rescanner = r }

// Observe registers fn for every state transition; call before Start
func (s *Svc) Observe(fn func(domain.Transition)) { s.observers = append(s.observers, fn) }

// Start subscribes to the auth flag so a sign-in made elsewhere also releases parked fields
func (s *Svc) Start() {
	if s.deps.Flag == nil {
		return
	}
	s.unsub = s.deps.Flag.Subscribe(func(present bool) {
		if present {
			s.deps.Sched.Post(func() { s.releaseParked(false) })
		}
	})
}

// Stop ends every watch and ignores further calls
func (s *Svc) Stop() {
	s.deps.Sched.Post(func() {
		if s.stopped {
			return
		}
		s.stopped = true
		if s.unsub != nil {
			s.unsub()
		}
		if s.rescanTimer != nil {
			s.rescanTimer.Stop()
			s.rescanTimer = nil
		}
		for _, ss := range s.sessions {
			s.closeWidgets(ss)
			s.finish(ss, domain.StateAbandoned, domain.OutcomeStopped)
		}
	})
}

// Watch starts a watch for the field unless one is already running
func (s *Svc) Watch(handle, domainHint string) {
	s.deps.Sched.Post(func() { s.watch(handle, domainHint) })
}

// Detach ends the field's watch because the element left the page
func (s *Svc) Detach(handle string) {
	s.deps.Sched.Post(func() {
		ss := s.sessions[handle]
		if ss == nil {
			return
		}
		s.closeWidgets(ss)
		s.finish(ss, domain.StateAbandoned, domain.OutcomeDetached)
	})
}

// Snapshots lists running watches; call on the loop
func (s *Svc) Snapshots() []domain.Snapshot {
	out := make([]domain.Snapshot, 0, len(s.sessions))
	for _, ss := range s.sessions {
		out = append(out, ss.snapshot())
	}
	return out
}

// Snapshot returns the field's running watch; call on the loop
func (s *Svc) Snapshot(handle string) (domain.Snapshot, bool) {
	ss, ok := s.sessions[handle]
	if !ok {
		return domain.Snapshot{}, false
	}
	return ss.snapshot(), true
}

func (ss *session) snapshot() domain.Snapshot {
	return domain.Snapshot{
		ID:        ss.id,
		Field:     ss.field,
		Domain:    ss.domain,
		State:     ss.state,
		Attempts:  ss.attempts,
		Code:      ss.code,
		Outcome:   ss.outcome,
		StartedAt: ss.started,
	}
}

func (s *Svc) watch(handle, domainHint string) {
	if s.stopped || handle == "" {
		return
	}
	if _, ok := s.sessions[handle]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ss := &session{
		id:      uuid.NewString(),
		field:   handle,
		domain:  domainHint,
		state:   domain.StateIdle,
		started: s.deps.Sched.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.sessions[handle] = ss
	s.log.Debug().Str("field", handle).Str("domain", domainHint).Str("watch_id", ss.id).Msg("watch started")
	s.transition(ss, domain.StatePolling, domain.OutcomeNone)
	s.attempt(ss)
}

// current reports whether ss is still the live session for its field in state st
func (s *Svc) current(ss *session, st domain.State) bool {
	return s.sessions[ss.field] == ss && ss.state == st
}

func (s *Svc) attempt(ss *session) {
	if !s.deps.Host.Attached(ss.field) {
		s.finish(ss, domain.StateAbandoned, domain.OutcomeDetached)
		return
	}
	ss.attempts++
	s.nextTok++
	tok := s.nextTok
	ss.inflight = tok

	sctx, field, hint, timeout := ss.ctx, ss.field, ss.domain, s.cfg.FindTimeout
	s.deps.Sched.Go(func(gctx context.Context) {
		ctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		stop := context.AfterFunc(sctx, cancel)
		defer stop()

		c, ok, err := s.deps.Finder.FindCode(logger.WithRequest(ctx, "", field), hint)
		s.deps.Sched.Post(func() { s.onResult(ss, tok, c, ok, err) })
	})
}

func (s *Svc) onResult(ss *session, tok uint64, c extract.Candidate, ok bool, err error) {
	if !s.current(ss, domain.StatePolling) || ss.inflight != tok {
		s.log.Debug().Str("field", ss.field).Msg("late lookup result dropped")
		return
	}
	ss.inflight = 0

	switch {
	case err != nil && perr.NotAuthenticated(err):
		// the flag may have flipped while the lookup was out
		if s.deps.Flag != nil && s.deps.Flag.Present() {
			s.log.Debug().Str("field", ss.field).Msg("signed in since lookup; retrying")
			s.attempt(ss)
			return
		}
		s.toAuthRequired(ss)
	case err != nil:
		ev := s.log.Error()
		if perr.Retryable(err) {
			ev = s.log.Warn()
		}
		ev.Err(err).Str("field", ss.field).Stringer("code", perr.CodeOf(err)).Int("attempt", ss.attempts).
			Msg("code lookup failed; will retry")
		s.scheduleNext(ss)
	case ok && c.Code != "":
		s.toSuggested(ss, c)
	default:
		s.scheduleNext(ss)
	}
}

func (s *Svc) scheduleNext(ss *session) {
	ss.timer = s.deps.Sched.AfterFunc(s.cfg.PollInterval, func() {
		if !s.current(ss, domain.StatePolling) {
			return
		}
		ss.timer = nil
		s.attempt(ss)
	})
}

func (s *Svc) toSuggested(ss *session, c extract.Candidate) {
	s.stopTimer(ss)
	ss.code = c.Code
	s.transition(ss, domain.StateSuggested, domain.OutcomeNone)
	s.log.Info().Str("field", ss.field).Str("rule", c.RuleID).Int("attempts", ss.attempts).Msg("code found")

	ss.widget = s.deps.UI.ShowSuggestion(ss.field, c.Code, domain.SuggestionCallbacks{
		Accept:  s.onLoop(func() { s.resolveSuggestion(ss, domain.OutcomeAccepted) }),
		Dismiss: s.onLoop(func() { s.resolveSuggestion(ss, domain.OutcomeDismissed) }),
	})
	ss.timer = s.deps.Sched.AfterFunc(s.cfg.SuggestTimeout, func() {
		ss.timer = nil
		s.resolveSuggestion(ss, domain.OutcomeTimedOut)
	})
}

func (s *Svc) resolveSuggestion(ss *session, out domain.Outcome) {
	if !s.current(ss, domain.StateSuggested) {
		return
	}
	if out == domain.OutcomeAccepted {
		if err := s.deps.Host.Fill(ss.field, ss.code); err != nil {
			s.log.Warn().Err(err).Str("field", ss.field).Msg("fill failed")
		}
	}
	s.closeWidgets(ss)
	s.finish(ss, domain.StateResolved, out)
}

func (s *Svc) toAuthRequired(ss *session) {
	s.stopTimer(ss)
	s.transition(ss, domain.StateAuthRequired, domain.OutcomeNone)
	ss.authWidget = s.deps.UI.ShowAuthPrompt(ss.field, domain.AuthCallbacks{
		Authenticate: s.onLoop(func() { s.authenticate(ss) }),
		Dismiss: s.onLoop(func() {
			if !s.current(ss, domain.StateAuthRequired) {
				return
			}
			s.closeWidgets(ss)
			s.finish(ss, domain.StateResolved, domain.OutcomeAuthDismissed)
		}),
	})
}

func (s *Svc) authenticate(ss *session) {
	if !s.current(ss, domain.StateAuthRequired) || ss.authing {
		return
	}
	ss.authing = true
	timeout := s.cfg.AuthTimeout
	s.deps.Sched.Go(func(gctx context.Context) {
		ctx, cancel := context.WithTimeout(gctx, timeout)
		defer cancel()
		err := s.deps.Auth.Authenticate(ctx, true)
		s.deps.Sched.Post(func() { s.onAuthenticated(ss, err) })
	})
}

func (s *Svc) onAuthenticated(ss *session, err error) {
	live := s.current(ss, domain.StateAuthRequired)
	if err != nil {
		if !live {
			return
		}
		ss.authing = false
		s.log.Warn().Err(err).Str("field", ss.field).Msg("sign-in failed")
		if ss.authWidget != nil {
			ss.authWidget.Failed(err)
		}
		return
	}
	s.log.Info().Str("field", ss.field).Msg("signed in")
	s.releaseParked(true)
}

// releaseParked ends every watch waiting on sign-in and hands the fields back to the scanner
// force schedules the rescan even when nothing was parked
func (s *Svc) releaseParked(force bool) {
	if s.stopped {
		return
	}
	var released []string
	for _, ss := range s.sessions {
		if ss.state != domain.StateAuthRequired {
			continue
		}
		s.closeWidgets(ss)
		released = append(released, ss.field)
		s.finish(ss, domain.StateResolved, domain.OutcomeAuthenticated)
	}
	if len(released) == 0 && !force {
		return
	}
	s.scheduleRescan(released)
}

func (s *Svc) scheduleRescan(release []string) {
	s.rescanRelease = append(s.rescanRelease, release...)
	if s.rescanTimer != nil {
		return
	}
	s.rescanTimer = s.deps.Sched.AfterFunc(s.cfg.RescanDelay, func() {
		s.rescanTimer = nil
		rel := s.rescanRelease
		s.rescanRelease = nil
		if s.stopped || s.rescanner == nil {
			return
		}
		s.rescanner.Rescan(rel...)
	})
}

// onLoop turns a loop-side action into a callback safe to hand to widgets
func (s *Svc) onLoop(fn func()) func() {
	return func() { s.deps.Sched.Post(fn) }
}

func (s *Svc) stopTimer(ss *session) {
	if ss.timer != nil {
		ss.timer.Stop()
		ss.timer = nil
	}
}

func (s *Svc) closeWidgets(ss *session) {
	if ss.widget != nil {
		ss.widget.Close()
		ss.widget = nil
	}
	if ss.authWidget != nil {
		ss.authWidget.Close()
		ss.authWidget = nil
	}
}

func (s *Svc) finish(ss *session, st domain.State, out domain.Outcome) {
	s.stopTimer(ss)
	ss.inflight = 0
	ss.cancel()
	s.transition(ss, st, out)
	if s.sessions[ss.field] == ss {
		delete(s.sessions, ss.field)
	}
}

func (s *Svc) transition(ss *session, to domain.State, out domain.Outcome) {
	from := ss.state
	ss.state = to
	ss.outcome = out
	ev := s.log.Debug()
	if to.Terminal() {
		ev = s.log.Info()
	}
	ev.Str("field", ss.field).Str("from", from.String()).Str("to", to.String()).
		Str("outcome", string(out)).Msg("watch transition")
	if len(s.observers) == 0 {
		return
	}
	t := domain.Transition{Field: ss.field, From: from, To: to, Outcome: out, At: s.deps.Sched.Now()}
	for _, fn := range s.observers {
		fn(t)
	}
}
