package version

import "testing"

func TestInfo(t *testing.T) {
	b := Info("codefill-agent")
	if b.Service != "codefill-agent" || b.Version != "dev" {
		t.Fatalf("Info = %+v", b)
	}
	if Info("").Service != "codefill" {
		t.Fatalf("empty service should default")
	}
	if got := b.String(); got != "codefill-agent dev (none, unknown)" {
		t.Fatalf("String = %q", got)
	}
}
