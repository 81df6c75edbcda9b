// Package terminal shows code suggestions and sign-in prompts on a line terminal
//
// Every open widget gets a number. "y N" takes its action, "n N" dismisses it, and a bare
// "y" or "n" applies to the only open widget
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"codefill/internal/platform/logger"
	"codefill/internal/services/watch/domain"
)

type kind uint8

const (
	suggestion kind = iota + 1
	prompt
)

type widget struct {
	t     *Terminal
	id    int
	kind  kind
	field string
	yes   func()
	no    func()
}

// Terminal is a Presenter over a reader and a writer
type Terminal struct {
	in  io.Reader
	out io.Writer

	mu   sync.Mutex
	next int
	open map[int]*widget

	log *logger.Logger
}

// New builds a terminal presenter
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, open: make(map[int]*widget), log: logger.Named("terminal")}
}

// ShowSuggestion offers code for field
func (t *Terminal) ShowSuggestion(field, code string, cb domain.SuggestionCallbacks) domain.Widget {
	w := t.add(suggestion, field, cb.Accept, cb.Dismiss)
	t.printf("[%d] %s: code %s  (y %d to fill, n %d to dismiss)\n", w.id, field, code, w.id, w.id)
	return w
}

// ShowAuthPrompt asks the user to sign in for field
func (t *Terminal) ShowAuthPrompt(field string, cb domain.AuthCallbacks) domain.AuthWidget {
	w := t.add(prompt, field, cb.Authenticate, cb.Dismiss)
	t.printf("[%d] %s: sign in to your mailbox to fetch codes  (y %d to sign in, n %d to dismiss)\n",
		w.id, field, w.id, w.id)
	return w
}

// Open prints the consent URL; it is the sign-in opener for terminal sessions
func (t *Terminal) Open(_ context.Context, authURL string) error {
	t.printf("Open this link to sign in:\n  %s\n", authURL)
	return nil
}

// Run reads commands until ctx ends or input closes
func (t *Terminal) Run(ctx context.Context) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			t.Handle(line)
		}
	}
}

// Handle applies one command line
func (t *Terminal) Handle(line string) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	verb = strings.ToLower(verb)
	if verb != "y" && verb != "n" {
		if verb != "" {
			t.printf("commands: y N, n N\n")
		}
		return
	}

	w, err := t.pick(strings.TrimSpace(arg))
	if err != nil {
		t.printf("%s\n", err)
		return
	}
	fn := w.no
	if verb == "y" {
		fn = w.yes
	}
	if w.kind == suggestion {
		// a suggestion resolves once; the caller closes it
		t.remove(w.id)
	}
	if fn != nil {
		fn()
	}
}

func (t *Terminal) pick(arg string) (*widget, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if arg == "" {
		if len(t.open) != 1 {
			return nil, fmt.Errorf("%d widgets open, say which: %s", len(t.open), t.idsLocked())
		}
		for _, w := range t.open {
			return w, nil
		}
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a widget number: %q", arg)
	}
	w, ok := t.open[id]
	if !ok {
		return nil, fmt.Errorf("no widget %d", id)
	}
	return w, nil
}

func (t *Terminal) idsLocked() string {
	ids := make([]int, 0, len(t.open))
	for id := range t.open {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return strings.Join(s, " ")
}

func (t *Terminal) add(k kind, field string, yes, no func()) *widget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	w := &widget{t: t, id: t.next, kind: k, field: field, yes: yes, no: no}
	t.open[w.id] = w
	return w
}

func (t *Terminal) remove(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.open[id]
	delete(t.open, id)
	return ok
}

func (t *Terminal) printf(format string, a ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.out, format, a...); err != nil {
		t.log.Warn().Err(err).Msg("terminal write failed")
	}
}

// Close removes the widget
func (w *widget) Close() {
	if w.t.remove(w.id) {
		w.t.printf("[%d] %s: closed\n", w.id, w.field)
	}
}

// Failed reports a failed sign-in; the prompt stays open
func (w *widget) Failed(err error) {
	w.t.printf("[%d] %s: sign-in failed: %v  (y %d to retry, n %d to dismiss)\n", w.id, w.field, err, w.id, w.id)
}
