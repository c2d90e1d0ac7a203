// Package verify runs the precise, final regex pass over candidate
// files that survived the n-gram filter. The core never implements its
// own regex engine for this step — it shells out to ripgrep the same
// way the original search service shelled out to an external grep
// binary, because a purpose-built regex tool already handles binary
// detection, multiline scanning, and large-file buffering correctly.
package verify

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/standardbeagle/csearch/internal/apperr"
)

// ErrVerifierFailed wraps an abnormal rg exit (anything other than
// "ran fine" or "no matches"); callers treat it as an empty match set
// for the affected chunk, never as a reason to abort the whole query.
var ErrVerifierFailed = errors.New("verify: verifier process failed")

// Options controls how the verifier subprocess is invoked.
type Options struct {
	CaseSensitive bool
	// Multiline should be set when the regex contains a literal
	// newline, so the verifier considers the whole file as one
	// matchable buffer instead of line-by-line.
	Multiline bool
}

// Run invokes the verifier against paths and returns the subset that
// genuinely match regex. regex is passed through to the verifier
// unmodified — earlier revisions of this pass re-escaped regex
// metacharacters before handing them to the subprocess, which turned
// every user regex into a literal string search; that escaping step is
// intentionally absent here.
func Run(ctx context.Context, regex string, paths []string, opts Options) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	args := []string{
		"--files-with-matches",
		"--no-messages",
	}
	if !opts.CaseSensitive {
		args = append(args, "--ignore-case")
	}
	if opts.Multiline {
		args = append(args, "--multiline")
	}
	args = append(args, "--regexp", regex, "--")
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, "rg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// rg exits 1 to mean "ran fine, nothing matched" — not a
		// verifier failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, apperr.New("verify.Run", apperr.KindVerifierFailure, ErrVerifierFailed)
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
