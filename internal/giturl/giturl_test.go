package giturl

import "testing"

func TestToHTTPSFromSCPStyle(t *testing.T) {
	got := toHTTPS("git@github.com:standardbeagle/csearch.git")
	want := "https://github.com/standardbeagle/csearch"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestToHTTPSFromSCPStyleNoSuffix(t *testing.T) {
	got := toHTTPS("git@github.com:owner/repo")
	want := "https://github.com/owner/repo"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestToHTTPSFromSSHURL(t *testing.T) {
	got := toHTTPS("ssh://git@github.com/owner/repo.git")
	want := "https://github.com/owner/repo"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestToHTTPSPassesThroughHTTPS(t *testing.T) {
	got := toHTTPS("https://github.com/owner/repo.git")
	want := "https://github.com/owner/repo"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestToHTTPSRejectsUnknownScheme(t *testing.T) {
	if got := toHTTPS("file:///local/repo"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
