package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/csearch/internal/query"
)

func sampleResult() *query.Result {
	return &query.Result{
		Total: 2,
		Skip:  0,
		Limit: 10,
		Matches: map[string]string{
			"https://example.com/blob/master/a.go": "package a\nfunc A() {}",
		},
	}
}

func TestFormatJSONByDefault(t *testing.T) {
	out := Format(sampleResult(), Options{})
	assert.Contains(t, out, `"total": 2`)
	assert.Contains(t, out, "a.go")
}

func TestFormatPrettyNumbersLines(t *testing.T) {
	out := Format(sampleResult(), Options{Pretty: true})
	assert.True(t, strings.Contains(out, "2 matches"))
	assert.Contains(t, out, "1 │ package a")
	assert.Contains(t, out, "2 │ func A() {}")
}
