package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func result(provider models.ProviderName, filename string) *models.ProviderResult {
	return &models.ProviderResult{
		Model:       string(provider) + "-model",
		Filename:    filename,
		Analysis:    "## Issues\n- **Billing** was wrong for " + filename + " by " + string(provider),
		CompletedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func twoFileResults() models.MultiModelResults {
	return models.MultiModelResults{
		BatchID: "b1",
		Status:  models.BatchCompleted,
		Files: []models.FileResults{
			{
				Filename: "call_a.txt",
				Results: map[models.ProviderName]*models.ProviderResult{
					models.ProviderOpenAI: result(models.ProviderOpenAI, "call_a.txt"),
					models.ProviderClaude: result(models.ProviderClaude, "call_a.txt"),
				},
			},
			{
				Filename: "call_b.md",
				Results: map[models.ProviderName]*models.ProviderResult{
					models.ProviderOpenAI: result(models.ProviderOpenAI, "call_b.md"),
					models.ProviderClaude: result(models.ProviderClaude, "call_b.md"),
					models.ProviderGemini: result(models.ProviderGemini, "call_b.md"),
				},
			},
		},
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(body)
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestBuild(t *testing.T) {
	t.Run("Should write one entry per produced result", func(t *testing.T) {
		res := twoFileResults()
		data, err := Build(res, FormatText)
		require.NoError(t, err)

		entries := readZip(t, data)
		assert.Equal(t, []string{
			"claude/call_a_claude.txt",
			"claude/call_b_claude.txt",
			"gemini/call_b_gemini.txt",
			"openai/call_a_openai.txt",
			"openai/call_b_openai.txt",
		}, keys(entries))
		assert.Equal(t, res.Files[0].Results[models.ProviderClaude].Analysis, entries["claude/call_a_claude.txt"])
	})

	t.Run("Should contain only the analysis text", func(t *testing.T) {
		data, err := Build(twoFileResults(), FormatMarkdown)
		require.NoError(t, err)

		for name, body := range readZip(t, data) {
			assert.NotContains(t, body, "-model", name)
			assert.NotContains(t, body, "2026", name)
			assert.Contains(t, name, ".md")
		}
	})

	t.Run("Should suffix colliding stems", func(t *testing.T) {
		res := models.MultiModelResults{Files: []models.FileResults{
			{Filename: "call.txt", Results: map[models.ProviderName]*models.ProviderResult{models.ProviderGemini: result(models.ProviderGemini, "call.txt")}},
			{Filename: "call.md", Results: map[models.ProviderName]*models.ProviderResult{models.ProviderGemini: result(models.ProviderGemini, "call.md")}},
		}}
		data, err := Build(res, FormatText)
		require.NoError(t, err)

		assert.Equal(t, []string{"gemini/call_2_gemini.txt", "gemini/call_gemini.txt"}, keys(readZip(t, data)))
	})

	t.Run("Should render docx entries", func(t *testing.T) {
		data, err := Build(twoFileResults(), FormatDocx)
		require.NoError(t, err)

		entries := readZip(t, data)
		require.Len(t, entries, 5)
		body := entries["openai/call_a_openai.docx"]
		require.NotEmpty(t, body)
		assert.Equal(t, "PK", body[:2], "docx is itself a zip container")
	})

	t.Run("Should refuse empty results", func(t *testing.T) {
		res := models.MultiModelResults{Files: []models.FileResults{{Filename: "a.txt"}}}
		_, err := Build(res, FormatText)
		assert.ErrorIs(t, err, ErrNoResults)
	})

	t.Run("Should refuse unknown formats", func(t *testing.T) {
		_, err := Build(twoFileResults(), Format("pdf"))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TXT", FormatText, false},
		{" md ", FormatMarkdown, false},
		{"docx", FormatDocx, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "analysis_b1.zip", FileName("b1"))
	assert.Equal(t, "claude/call_claude.md", EntryName(models.ProviderClaude, "call", FormatMarkdown))
}

func TestUniqueStems(t *testing.T) {
	files := []models.FileResults{
		{Filename: "dir/call.txt"},
		{Filename: "call.txt"},
		{Filename: "call.txt"},
		{Filename: ""},
	}
	assert.Equal(t, []string{"call", "call_2", "call_3", "file"}, uniqueStems(files))
}

func TestParseBlock(t *testing.T) {
	t.Run("Should keep the number of a numbered item as a bold marker", func(t *testing.T) {
		b, ok := parseBlock("2. Refund the **duplicate** charge")
		require.True(t, ok)
		assert.Equal(t, "2. ", b.marker)
		assert.Equal(t, []span{
			{text: "Refund the "},
			{text: "duplicate", bold: true},
			{text: " charge"},
		}, b.spans)
	})

	t.Run("Should render bullets with a dot marker", func(t *testing.T) {
		b, ok := parseBlock("- plain `code` item")
		require.True(t, ok)
		assert.Equal(t, "• ", b.marker)
		assert.Equal(t, []span{{text: "plain code item"}}, b.spans)
	})

	t.Run("Should size headings by depth", func(t *testing.T) {
		b, _ := parseBlock("# Summary")
		assert.Equal(t, uint64(16), b.size)
		assert.Equal(t, []span{{text: "Summary", bold: true}}, b.spans)

		b, _ = parseBlock("#### Detail")
		assert.Equal(t, uint64(bodySize), b.size)
	})

	t.Run("Should skip blank lines and rules", func(t *testing.T) {
		_, ok := parseBlock("")
		assert.False(t, ok)
		_, ok = parseBlock("---")
		assert.False(t, ok)
	})
}

func TestMarkdownToDocx(t *testing.T) {
	data, err := markdownToDocx("# Title\n\n1. First **item**\n- bullet point\n---\nClosing line")
	require.NoError(t, err)

	doc := readZip(t, data)["word/document.xml"]
	require.NotEmpty(t, doc)
	for _, want := range []string{"Title", "1.", "First", "item", "•", "bullet point", "Closing line"} {
		assert.Contains(t, doc, want)
	}
	assert.NotContains(t, doc, "**")
}
