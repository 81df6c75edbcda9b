package module

import (
	"strings"
	"testing"

	phttp "codefill/internal/platform/net/http"
)

type finder interface{ Find(hint string) string }

type gmail struct{}

func (gmail) Find(string) string { return "482913" }

type bundle struct {
	Finder finder
	hidden finder
}

type stub struct {
	name  string
	ports any
}

func (s stub) MountRoutes(phttp.Router) {}
func (s stub) Ports() any               { return s.ports }
func (s stub) Name() string             { return s.name }

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		ok    bool
	}{
		{"nil bundle", nil, false},
		{"bundle is the port", gmail{}, true},
		{"exported field", bundle{Finder: gmail{}}, true},
		{"only unexported field", bundle{hidden: gmail{}}, false},
		{"not a struct", 42, false},
	}
	for _, tc := range cases {
		f, ok := PortsOf[finder](stub{name: "mailbox", ports: tc.ports})
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v", tc.name, ok)
		}
		if ok && f.Find("acme.test") != "482913" {
			t.Fatalf("%s: wrong port", tc.name)
		}
	}
}

func TestMustPortsOf_PanicNamesModule(t *testing.T) {
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "mailbox") || !strings.Contains(msg, "requested port not found") {
			t.Fatalf("panic = %q", msg)
		}
	}()
	MustPortsOf[finder](stub{name: "mailbox"})
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("meta", nil)
	Register("codes", bundle{})
	Register("auth-api", nil)
	Register("codes", nil)

	got := Names()
	want := []string{"auth-api", "codes", "meta"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v", got)
	}
	Reset()
	if len(Names()) != 0 {
		t.Fatalf("reset left %v", Names())
	}
}
