package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/report"
	"go.trai.ch/strata/internal/core/domain"
)

func TestReporter_Write(t *testing.T) {
	layers := []domain.LayerStatus{{Name: "base"}, {Name: "app", Position: 1}}

	tests := []struct {
		name       string
		summary    report.Summary
		colored    bool
		goldenName string
	}{
		{
			name: "success",
			summary: report.Summary{
				Runtimes: []domain.RuntimeStatus{{Name: "jvm", Layers: layers}, {Name: "web", Layers: layers[:1]}},
				Duration: 1234 * time.Millisecond,
			},
			goldenName: "success",
		},
		{
			name: "failure",
			summary: report.Summary{
				Runtimes: []domain.RuntimeStatus{
					{Name: "jvm", Layers: layers, Errors: []string{
						"parse failed: unexpected token (file=app/src/Widget.strata line=3)",
						"compile failed\nWidget.java:4: error: missing return",
					}},
					{Name: "web", Layers: layers},
				},
				Duration:  2 * time.Second,
				MaxErrors: 50,
			},
			goldenName: "failure",
		},
		{
			name: "error limit",
			summary: report.Summary{
				Runtimes: []domain.RuntimeStatus{
					{Name: "jvm", Errors: []string{"first", "second"}},
				},
				Duration:  time.Second,
				MaxErrors: 2,
			},
			goldenName: "error_limit",
		},
		{
			name: "canceled",
			summary: report.Summary{
				Runtimes: []domain.RuntimeStatus{{Name: "jvm"}},
				Duration: 500 * time.Millisecond,
				Canceled: true,
			},
			goldenName: "canceled",
		},
		{
			name: "colored failure",
			summary: report.Summary{
				Runtimes: []domain.RuntimeStatus{{Name: "jvm", Errors: []string{"boom"}}},
				Duration: time.Second,
			},
			colored:    true,
			goldenName: "failure_colored",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, report.New(&buf, tt.colored).Write(tt.summary))

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestSummary_Failed(t *testing.T) {
	assert.False(t, report.Summary{Runtimes: []domain.RuntimeStatus{{Name: "jvm"}}}.Failed())
	assert.True(t, report.Summary{Runtimes: []domain.RuntimeStatus{
		{Name: "jvm"}, {Name: "web", Errors: []string{"x"}},
	}}.Failed())
}
