// Package archive packages batch results into a downloadable zip bundle.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Format selects how each analysis is rendered inside the bundle.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatDocx     Format = "docx"
)

var (
	ErrNoResults     = errors.New("no results to archive")
	ErrUnknownFormat = errors.New("unknown archive format")
)

// ParseFormat maps a query value to a Format. Empty means plain text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatDocx:
		return FormatDocx, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FileName is the download name for a batch bundle.
func FileName(batchID string) string {
	return fmt.Sprintf("analysis_%s.zip", batchID)
}

// Build writes one entry per (file, provider) pair that produced a result,
// grouped by provider: <provider>/<stem>_<provider>.<ext>.
// Entries contain the analysis text only.
func Build(results models.MultiModelResults, format Format) ([]byte, error) {
	if format == "" {
		format = FormatText
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if results.Count() == 0 {
		return nil, ErrNoResults
	}

	stems := uniqueStems(results.Files)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range models.Providers {
		for i, file := range results.Files {
			res := file.Results[name]
			if res == nil {
				continue
			}

			body, err := render(res.Analysis, format)
			if err != nil {
				zw.Close()
				return nil, fmt.Errorf("render %s for %s: %w", name, file.Filename, err)
			}

			modified := res.CompletedAt
			if modified.IsZero() {
				modified = time.Now()
			}
			w, err := zw.CreateHeader(&zip.FileHeader{
				Name:     EntryName(name, stems[i], format),
				Method:   zip.Deflate,
				Modified: modified,
			})
			if err != nil {
				zw.Close()
				return nil, fmt.Errorf("create entry: %w", err)
			}
			if _, err := w.Write(body); err != nil {
				zw.Close()
				return nil, fmt.Errorf("write entry: %w", err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// EntryName returns the path of one analysis inside the bundle.
func EntryName(name models.ProviderName, stem string, format Format) string {
	return fmt.Sprintf("%s/%s_%s.%s", name, stem, name, format)
}

func render(analysis string, format Format) ([]byte, error) {
	switch format {
	case FormatDocx:
		return markdownToDocx(analysis)
	default:
		return []byte(analysis), nil
	}
}

// uniqueStems strips directories and extensions and suffixes repeats with _2, _3...
func uniqueStems(files []models.FileResults) []string {
	stems := make([]string, len(files))
	seen := make(map[string]int, len(files))
	taken := make(map[string]bool, len(files))

	for i, f := range files {
		base := filepath.Base(strings.ReplaceAll(f.Filename, "\\", "/"))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem == "" || stem == "." || stem == "/" {
			stem = "file"
		}

		candidate := stem
		for taken[candidate] {
			seen[stem]++
			candidate = fmt.Sprintf("%s_%d", stem, seen[stem]+1)
		}
		taken[candidate] = true
		stems[i] = candidate
	}
	return stems
}
