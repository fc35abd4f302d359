package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log_inspector/internal/analysis"
	"log_inspector/internal/taxonomy"
)

func sampleResults() []analysis.Result {
	return []analysis.Result{
		{
			ChunkIndex:     0,
			Start:          0,
			End:            900,
			Classification: "SPARK_OOM_ERROR, SPARK_ERROR",
			Summary:        "Executors ran out of memory during the shuffle stage.\n- Executor memory peaked at 7.8 GB\n- Stage 4 retried 3 times",
		},
		{
			ChunkIndex: 1,
			Start:      900,
			End:        1800,
			ClassifyErr: &analysis.ServiceCallError{
				ChunkIndex: 1,
				Kind:       analysis.KindClassify,
				Err:        fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			},
			Summary: "Driver lost connection to the cluster manager.",
		},
		{
			ChunkIndex:     2,
			Start:          1800,
			End:            2000,
			Classification: "FOO_BAR, NETWORK_ERROR",
			Summary:        "Retries succeeded.\n- 2 retries over 30s",
		},
	}
}

func sampleHeader() Header {
	return Header{
		RunID:   "3f1c2d4e-0000-4000-8000-000000000000",
		Source:  "/var/log/spark/app.log",
		Size:    2000,
		Elapsed: 1234567 * time.Microsecond,
	}
}

func TestBuild_CountsAndParses(t *testing.T) {
	r := Build(sampleHeader(), sampleResults())

	require.Equal(t, 3, r.Total())
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)

	assert.Equal(t, []taxonomy.ErrorType{taxonomy.SparkOOMError, taxonomy.SparkError}, taxonomy.Types(r.Sections[0].Codes))
	assert.Equal(t, []string{"Executor memory peaked at 7.8 GB", "Stage 4 retried 3 times"}, r.Sections[0].Summary.Points)

	require.True(t, r.Sections[1].Failed())
	assert.Equal(t, analysis.KindClassify, r.Sections[1].Failures[0].Kind)
	assert.Equal(t, "request failed: context deadline exceeded", r.Sections[1].Failures[0].Reason)

	assert.Equal(t, []taxonomy.ErrorType{taxonomy.UnknownError, taxonomy.NetworkError}, taxonomy.Types(r.Sections[2].Codes))
}

func TestDelivered(t *testing.T) {
	r := Build(sampleHeader(), sampleResults())
	assert.Equal(t, 3, r.Delivered())

	summaryDown := errors.New("summarize unavailable")
	results := []analysis.Result{
		{ChunkIndex: 0, Classification: "SPARK_ERROR", SummarizeErr: summaryDown},
		{ChunkIndex: 1, ClassifyErr: summaryDown, SummarizeErr: summaryDown},
	}
	r = Build(sampleHeader(), results)
	assert.Equal(t, 1, r.Delivered())
	assert.Equal(t, 2, r.Failed)

	h := sampleHeader()
	h.Kinds = []analysis.Kind{analysis.KindClassify}
	r = Build(h, []analysis.Result{{ChunkIndex: 0, ClassifyErr: summaryDown}})
	assert.Equal(t, 0, r.Delivered())
}

func TestText_FailedChunkShownInline(t *testing.T) {
	out := Build(sampleHeader(), sampleResults()).Text()

	assert.Contains(t, out, "Source:   /var/log/spark/app.log\n")
	assert.Contains(t, out, "Size:     2000 bytes (2.0 KiB)\n")
	assert.Contains(t, out, "Elapsed:  1.235s\n")
	assert.Contains(t, out, "Chunks:   3 processed, 2 succeeded, 1 failed\n")

	assert.Contains(t, out, "=== Chunk 1/3 [bytes 0-900) ===\nERROR_CODES: SPARK_OOM_ERROR, SPARK_ERROR\nSUMMARY: Executors ran out of memory during the shuffle stage.\nMETRICS:\n- Executor memory peaked at 7.8 GB\n- Stage 4 retried 3 times\n")
	assert.Contains(t, out, "=== Chunk 2/3 [bytes 900-1800) ===\nERROR_CODES: FAILED (ServiceCallError): request failed: context deadline exceeded\nSUMMARY: Driver lost connection to the cluster manager.\nMETRICS: none reported\n")
	assert.Contains(t, out, "ERROR_CODES: UNKNOWN_ERROR (FOO_BAR), NETWORK_ERROR\n")

	// порядок секций совпадает с порядком чанков
	first := strings.Index(out, "Chunk 1/3")
	second := strings.Index(out, "Chunk 2/3")
	third := strings.Index(out, "Chunk 3/3")
	assert.True(t, first < second && second < third)
}

func TestText_EmptyFile(t *testing.T) {
	out := Build(Header{Source: "empty.log"}, nil).Text()

	assert.Contains(t, out, "Chunks:   0 processed, 0 succeeded, 0 failed\n")
	assert.Contains(t, out, "No chunks to analyze")
	assert.NotContains(t, out, "ERROR_CODES:")
}

func TestText_OnlyClassify(t *testing.T) {
	h := sampleHeader()
	h.Kinds = []analysis.Kind{analysis.KindClassify}
	results := []analysis.Result{{ChunkIndex: 0, End: 10, Classification: "SUCCESS"}}

	out := Build(h, results).Text()

	assert.Contains(t, out, "ERROR_CODES: SUCCESS\n")
	assert.NotContains(t, out, "SUMMARY:")
	assert.NotContains(t, out, "METRICS:")
}

func TestText_Deterministic(t *testing.T) {
	a := Build(sampleHeader(), sampleResults()).Text()
	b := Build(sampleHeader(), sampleResults()).Text()
	assert.Equal(t, a, b)
}

func TestMarkdownAndHTML(t *testing.T) {
	r := Build(sampleHeader(), sampleResults())

	md, err := r.Render(FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Log analysis: /var/log/spark/app.log\n"))
	assert.Contains(t, md, "### Chunk 2: bytes 900-1800")
	assert.Contains(t, md, "**ERROR_CODES:** `SPARK_OOM_ERROR, SPARK_ERROR`")
	assert.Contains(t, md, "- ❌ Failed: 1")

	html, err := r.Render(FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Log analysis: /var/log/spark/app.log</h1>")
	assert.Contains(t, html, "<code>SPARK_OOM_ERROR, SPARK_ERROR</code>")
	assert.Contains(t, html, "<li>Executor memory peaked at 7.8 GB</li>")
}

func TestHTML_EscapesServiceText(t *testing.T) {
	results := []analysis.Result{{ChunkIndex: 0, End: 5, Classification: "SUCCESS", Summary: "<script>alert(1)</script>"}}

	html, err := Build(sampleHeader(), results).HTML()

	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "0 bytes", humanBytes(0))
	assert.Equal(t, "1023 bytes", humanBytes(1023))
	assert.Equal(t, "1048576 bytes (1.0 MiB)", humanBytes(1<<20))
}
