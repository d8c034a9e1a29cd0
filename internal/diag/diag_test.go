package diag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrder(t *testing.T) {
	ordered := []Severity{SeverityDebug, SeverityInfo, SeverityWarn, SeverityError, SeverityFatal, SeverityUnknown}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i].AtLeast(ordered[i-1]), "%s >= %s", ordered[i], ordered[i-1])
		assert.False(t, ordered[i-1].AtLeast(ordered[i]), "%s < %s", ordered[i-1], ordered[i])
	}
	assert.True(t, SeverityDebug.AtLeast(SeverityNone))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"WARN", SeverityWarn, false},
		{"warn", SeverityWarn, false},
		{" Warning ", SeverityWarn, false},
		{"error", SeverityError, false},
		{"FATAL", SeverityFatal, false},
		{"", SeverityNone, false},
		{"SEVERE", SeverityNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSeverity))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityText(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("error")))
	assert.Equal(t, SeverityError, s)
	assert.Error(t, s.UnmarshalText([]byte("loud")))

	b, err := SeverityInfo.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "INFO", string(b))
}

func rec(sev Severity, msg string) Record {
	return Record{Severity: sev, Message: msg}
}

func TestFilterBySeverityKeepsInsertionOrder(t *testing.T) {
	a := NewAggregator()
	a.Record(rec(SeverityInfo, "info"))
	a.Record(rec(SeverityWarn, "warn"))
	a.Record(rec(SeverityError, "error"))

	got := a.Filter(SeverityWarn, "")
	require.Len(t, got, 2)
	assert.Equal(t, "warn", got[0].Message)
	assert.Equal(t, "error", got[1].Message)
}

func TestFilterByText(t *testing.T) {
	a := NewAggregator()
	a.Record(rec(SeverityInfo, "possible invalid reference: intro"))
	a.Record(rec(SeverityError, "include file not found"))
	a.Record(rec(SeverityWarn, "possible invalid reference: outro"))

	got := a.Filter(SeverityNone, "invalid reference")
	require.Len(t, got, 2)
	assert.Equal(t, SeverityInfo, got[0].Severity)

	both := a.Filter(SeverityWarn, "invalid reference")
	require.Len(t, both, 1)
	assert.Equal(t, "possible invalid reference: outro", both[0].Message)
}

func TestFilterWithoutConditionsReturnsNothing(t *testing.T) {
	a := NewAggregator()
	a.Record(rec(SeverityFatal, "boom"))
	assert.Empty(t, a.Filter(SeverityNone, ""))
	assert.Empty(t, a.Filter(SeverityNone, "   "))
}

func TestEvaluateSeverityPolicy(t *testing.T) {
	var reported []string
	a := NewAggregator(
		WithPolicy(Policy{Severity: SeverityWarn}),
		WithErrorReporter(ReporterFunc(func(m string) { reported = append(reported, m) })),
	)
	a.Record(rec(SeverityInfo, "skipped"))
	a.Record(rec(SeverityWarn, "w1"))
	a.Record(rec(SeverityError, "e1"))
	a.Record(rec(SeverityWarn, "w2"))
	a.Record(rec(SeverityFatal, "f1"))

	err := a.Evaluate()
	require.Error(t, err)
	fe, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, 4, fe.Count)
	assert.Contains(t, err.Error(), "Found 4 issue(s) of severity WARN or higher")
	assert.Equal(t, "Found 4 issue(s) of severity WARN or higher during conversion", err.Error())
	assert.Equal(t, []string{
		"docsink: WARN: w1",
		"docsink: ERROR: e1",
		"docsink: WARN: w2",
		"docsink: FATAL: f1",
	}, reported)
	assert.Equal(t, reported, fe.Messages)
}

func TestEvaluateMessageTemplates(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		{"severity", Policy{Severity: SeverityError}, "Found 1 issue(s) of severity ERROR or higher during conversion"},
		{"text", Policy{ContainsText: "missing"}, "Found 1 issue(s) containing 'missing'"},
		{"both", Policy{Severity: SeverityWarn, ContainsText: "missing"}, "Found 1 issue(s) matching severity WARN or higher and text 'missing'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator(WithPolicy(tt.policy))
			a.Record(rec(SeverityError, "image missing"))
			err := a.Evaluate()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestEvaluateNoFailure(t *testing.T) {
	a := NewAggregator()
	a.Record(rec(SeverityFatal, "boom"))
	assert.NoError(t, a.Evaluate(), "no policy never fails")

	b := NewAggregator(WithPolicy(Policy{Severity: SeverityError}))
	b.Record(rec(SeverityWarn, "minor"))
	assert.NoError(t, b.Evaluate())
}

func TestEchoAndProcessAll(t *testing.T) {
	var echoed []string
	a := NewAggregator(WithEcho(ReporterFunc(func(m string) { echoed = append(echoed, m) })))
	a.Record(rec(SeverityInfo, "one"))
	assert.Equal(t, []string{"docsink: INFO: one"}, echoed)

	a.ProcessAll()
	assert.Len(t, echoed, 2)

	silent := NewAggregator()
	silent.Record(rec(SeverityInfo, "one"))
	silent.ProcessAll()
	assert.Equal(t, 1, silent.Len())
}

func TestClearAndCurrentFile(t *testing.T) {
	a := NewAggregator()
	a.SetCurrentFile("/docs/index.adoc")
	a.Record(rec(SeverityWarn, "no cursor"))
	a.Record(Record{Severity: SeverityWarn, Message: "own cursor", Cursor: &Cursor{File: "/docs/inc.adoc", Line: 3}})

	got := a.Records()
	require.Len(t, got, 2)
	assert.Equal(t, "/docs/index.adoc", got[0].Cursor.File)
	assert.Equal(t, "/docs/inc.adoc", got[1].Cursor.File)

	a.Clear()
	assert.True(t, a.IsEmpty())
	assert.Len(t, got, 2, "Records returns a copy")
}

func TestFormat(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "guide", "index.adoc")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o755))
	require.NoError(t, os.WriteFile(inside, []byte("= Guide"), 0o644))

	tests := []struct {
		name   string
		f      Formatter
		record Record
		want   string
	}{
		{
			name:   "no cursor",
			record: Record{Severity: SeverityWarn, Message: "msg"},
			want:   "docsink: WARN: msg",
		},
		{
			name:   "relative path and line",
			f:      Formatter{SourceDir: dir},
			record: Record{Severity: SeverityError, Message: "msg", Cursor: &Cursor{File: inside, Line: 12}},
			want:   "docsink: ERROR: " + filepath.Join("guide", "index.adoc") + ": line 12: msg",
		},
		{
			name:   "outside source dir keeps path",
			f:      Formatter{SourceDir: filepath.Join(dir, "guide")},
			record: Record{Severity: SeverityInfo, Message: "msg", Cursor: &Cursor{File: "/elsewhere/a.adoc"}},
			want:   "docsink: INFO: /elsewhere/a.adoc: msg",
		},
		{
			name:   "remote source",
			f:      Formatter{SourceDir: dir},
			record: Record{Severity: SeverityInfo, Message: "msg", Cursor: &Cursor{File: "https://example.org/a.adoc", Line: 2}},
			want:   "docsink: INFO: https://example.org/a.adoc: line 2: msg",
		},
		{
			name:   "line zero omitted",
			f:      Formatter{Tag: "asciidoctor"},
			record: Record{Severity: SeverityWarn, Message: "msg", Cursor: &Cursor{File: "a.adoc"}},
			want:   "asciidoctor: WARN: a.adoc: msg",
		},
		{
			name:   "line without file",
			record: Record{Severity: SeverityWarn, Message: "msg", Cursor: &Cursor{Line: 4}},
			want:   "docsink: WARN: line 4: msg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Format(tt.record))
		})
	}
}

func TestConfigPolicy(t *testing.T) {
	off := false
	cfg := Config{OutputToConsole: &off, FailIf: &FailIf{Severity: "warning", ContainsText: "ref"}}
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, Policy{Severity: SeverityWarn, ContainsText: "ref"}, p)
	assert.False(t, cfg.Console())

	assert.True(t, Config{}.Console())
	p, err = Config{}.Policy()
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, err = Config{FailIf: &FailIf{Severity: "LOUD"}}.Policy()
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "disabled", Policy{}.String())
	assert.Equal(t, "severity>=ERROR", Policy{Severity: SeverityError}.String())
	assert.Equal(t, `text "x"`, Policy{ContainsText: "x"}.String())
}
