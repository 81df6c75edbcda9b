// Package service finds one-time-code fields on a page and hands them to the watcher
//
// Scans run on load, on every insertion mutation and on a fallback timer.
// A field that classified once is never evaluated again until it is released
package service

import (
	"iter"
	"time"

	"codefill/internal/core/classify"
	"codefill/internal/platform/logger"
	"codefill/internal/platform/loop"
	pstrings "codefill/internal/platform/strings"
	"codefill/internal/services/scan/domain"
)

// DefaultInputTypes are the input types that accept typed text
var DefaultInputTypes = []string{"", "text", "tel", "number", "password", "search"}

// Config holds scanner settings
type Config struct {
	FallbackInterval time.Duration
	InputTypes       []string
}

// Deps are the scanner collaborators
type Deps struct {
	Sched      loop.Scheduler
	Host       domain.Host
	Watcher    domain.Watcher
	Classifier *classify.Classifier
	Log        *logger.Logger
}

// Svc is the page scanner; its state is owned by the loop
type Svc struct {
	cfg  Config
	deps Deps
	log  *logger.Logger

	seen  map[string]*domain.CandidateField
	timer loop.Timer
	unsub func()
	on    bool
}

// New builds a scanner
func New(cfg Config, deps Deps) *Svc {
	if cfg.FallbackInterval <= 0 {
		cfg.FallbackInterval = 2 * time.Second
	}
	if len(cfg.InputTypes) == 0 {
		cfg.InputTypes = DefaultInputTypes
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.Default()
	}
	log := deps.Log
	if log == nil {
		log = logger.Named("scan")
	}
	return &Svc{cfg: cfg, deps: deps, log: log, seen: make(map[string]*domain.CandidateField)}
}

// Start subscribes to mutations, scans once and arms the fallback timer
func (s *Svc) Start() {
	s.deps.Sched.Post(func() {
		if s.on {
			return
		}
		s.on = true
		s.unsub = s.deps.Host.Subscribe(func(m domain.Mutation) {
			s.deps.Sched.Post(func() { s.onMutation(m) })
		})
		s.Scan()
		s.arm()
	})
}

// Stop ends the subscription and the fallback timer
func (s *Svc) Stop() {
	s.deps.Sched.Post(func() {
		if !s.on {
			return
		}
		s.on = false
		if s.unsub != nil {
			s.unsub()
			s.unsub = nil
		}
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	})
}

// Rescan drops the records for release and scans again
func (s *Svc) Rescan(release ...string) {
	s.deps.Sched.Post(func() {
		s.Release(release...)
		s.Scan()
	})
}

// Release forgets fields so the next scan evaluates them afresh; call on the loop
func (s *Svc) Release(handles ...string) {
	for _, h := range handles {
		delete(s.seen, h)
	}
}

// Fields yields fields that classify for the first time, marking them as it goes
// The sequence is lazy and restartable; each pass walks the page as it is now. Call on the loop
func (s *Svc) Fields() iter.Seq[domain.Detection] {
	return func(yield func(domain.Detection) bool) {
		for el := range s.deps.Host.Elements() {
			if !s.textEntry(el.Descriptor) {
				continue
			}
			rec := s.seen[el.Handle]
			if rec == nil {
				rec = newRecord(el)
				s.seen[el.Handle] = rec
			}
			if rec.Classified {
				continue
			}
			v := s.deps.Classifier.Classify(el.Descriptor)
			if !v.Match {
				continue
			}
			rec.Classified = true
			if !yield(domain.Detection{CandidateField: *rec, Verdict: v}) {
				return
			}
		}
	}
}

// Scan starts a watch for every newly classified field and returns them; call on the loop
func (s *Svc) Scan() []domain.Detection {
	var out []domain.Detection
	hint := s.deps.Host.Domain()
	for f := range s.Fields() {
		s.log.Info().Str("field", f.Handle).Str("reason", string(f.Verdict.Reason)).
			Str("detail", f.Verdict.Detail).Msg("code field detected")
		s.deps.Watcher.Watch(f.Handle, hint)
		out = append(out, f)
	}
	return out
}

// Records lists every field the scanner has observed; call on the loop
func (s *Svc) Records() []domain.CandidateField {
	out := make([]domain.CandidateField, 0, len(s.seen))
	for _, r := range s.seen {
		out = append(out, *r)
	}
	return out
}

func (s *Svc) onMutation(m domain.Mutation) {
	switch m.Kind {
	case domain.Inserted:
		s.Scan()
	case domain.Removed:
		for _, h := range m.Handles {
			rec, ok := s.seen[h]
			if !ok {
				continue
			}
			delete(s.seen, h)
			if rec.Classified {
				s.deps.Watcher.Detach(h)
			}
		}
	}
}

func (s *Svc) arm() {
	s.timer = s.deps.Sched.AfterFunc(s.cfg.FallbackInterval, func() {
		if !s.on {
			return
		}
		s.Scan()
		s.arm()
	})
}

func (s *Svc) textEntry(d classify.Descriptor) bool {
	if d.Tag != "" && !pstrings.EqualAnyFold(d.Tag, "input") {
		return false
	}
	return pstrings.EqualAnyFold(d.Type, s.cfg.InputTypes...)
}

func newRecord(el domain.Element) *domain.CandidateField {
	rec := &domain.CandidateField{Handle: el.Handle, Context: el.Descriptor.Context}
	if n := el.Descriptor.MaxLength; n > 0 {
		rec.MaxLength = &n
	}
	return rec
}
