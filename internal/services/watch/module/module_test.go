package module

import (
	"context"
	"testing"
	"time"

	"codefill/internal/core/authstate"
	"codefill/internal/core/extract"
	"codefill/internal/modkit"
	"codefill/internal/platform/config"
	"codefill/internal/platform/loop"
	kit "codefill/internal/platform/testkit"
	"codefill/internal/services/watch/domain"
	"codefill/internal/services/watch/service"
)

type oneCode struct{}

func (oneCode) FindCode(context.Context, string) (extract.Candidate, bool, error) {
	return extract.Candidate{Code: "482913", Rule: 3, RuleID: "verification_code"}, true, nil
}

type noAuth struct{}

func (noAuth) Authenticate(context.Context, bool) error { return nil }

type page struct{}

func (page) Attached(string) bool      { return true }
func (page) Fill(string, string) error { return nil }

type silentUI struct{ shown int }

type closer struct{}

func (closer) Close()       {}
func (closer) Failed(error) {}

func (u *silentUI) ShowSuggestion(string, string, domain.SuggestionCallbacks) domain.Widget {
	u.shown++
	return closer{}
}

func (u *silentUI) ShowAuthPrompt(string, domain.AuthCallbacks) domain.AuthWidget {
	return closer{}
}

func inputs(ui domain.Presenter) Inputs {
	return Inputs{Finder: oneCode{}, Auth: noAuth{}, Host: page{}, UI: ui}
}

func TestNew_RequiresInputs(t *testing.T) {
	deps := modkit.Deps{Sched: loop.NewManual(time.Unix(0, 0))}
	kit.MustPanic(t, func() { New(deps) })
	kit.MustPanic(t, func() { New(deps, modkit.WithPorts(Inputs{Finder: oneCode{}})) })
	kit.MustPanic(t, func() { New(modkit.Deps{}, modkit.WithPorts(inputs(&silentUI{}))) })
}

func TestNew_CoordinatorRunsOnTheLoop(t *testing.T) {
	m := loop.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	flag := authstate.New()
	flag.Set()
	ui := &silentUI{}

	mod := New(modkit.Deps{Sched: m, Auth: flag}, modkit.WithPorts(inputs(ui)))
	if mod.Name() != "watch" {
		t.Fatalf("name = %q", mod.Name())
	}
	coord := mod.Ports().(Ports).Coordinator
	coord.Start()
	coord.Watch("otp", "acme.test")
	m.Drain()

	snap, ok := coord.Snapshot("otp")
	if !ok || snap.State != domain.StateSuggested || snap.Code != "482913" {
		t.Fatalf("snapshot = %+v ok=%v", snap, ok)
	}
	if ui.shown != 1 {
		t.Fatalf("suggestions shown = %d", ui.shown)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("CODEFILL_WATCH_POLL_INTERVAL", "3s")
	t.Setenv("CODEFILL_WATCH_SUGGEST_TIMEOUT", "0s")

	o := FromConfig(config.New())
	def := service.DefaultConfig()
	if o.PollInterval != 3*time.Second {
		t.Fatalf("poll = %v", o.PollInterval)
	}
	if o.SuggestTimeout != def.SuggestTimeout || o.FindTimeout != def.FindTimeout {
		t.Fatalf("defaults not kept: %+v", o)
	}
}
