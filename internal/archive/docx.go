package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName  = "Times New Roman"
	fontColor = "000000"
	bodySize  = 13
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	reStrong   = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// headingSizes maps heading depth to font size; deeper headings use bodySize.
var headingSizes = map[int]uint64{1: 16, 2: 15, 3: 14}

// span is a piece of inline text with its weight.
type span struct {
	text string
	bold bool
}

// block is one rendered paragraph: an optional bold marker followed by spans.
type block struct {
	marker string
	spans  []span
	size   uint64
}

// markdownToDocx renders a markdown analysis as a styled docx document.
func markdownToDocx(markdown string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(markdown, "\n") {
		b, ok := parseBlock(strings.TrimSpace(line))
		if !ok {
			continue
		}
		writeBlock(doc.AddParagraph(""), b)
	}

	// godocx only saves to a path
	dir, err := os.MkdirTemp("", "insight-docx-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "analysis.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("save docx: %w", err)
	}
	return os.ReadFile(path)
}

// parseBlock classifies a trimmed line. Blank lines and rules yield nothing.
func parseBlock(line string) (block, bool) {
	if line == "" || line == "---" {
		return block{}, false
	}
	if m := reHeading.FindStringSubmatch(line); m != nil {
		size, ok := headingSizes[len(m[1])]
		if !ok {
			size = bodySize
		}
		return block{spans: []span{{text: stripInline(m[2]), bold: true}}, size: size}, true
	}
	if m := reBullet.FindStringSubmatch(line); m != nil {
		return block{marker: "• ", spans: inlineSpans(m[1]), size: bodySize}, true
	}
	if m := reNumbered.FindStringSubmatch(line); m != nil {
		return block{marker: m[1] + ". ", spans: inlineSpans(m[2]), size: bodySize}, true
	}
	return block{spans: inlineSpans(line), size: bodySize}, true
}

// inlineSpans splits text on **strong** markers.
func inlineSpans(text string) []span {
	var out []span
	last := 0
	for _, loc := range reStrong.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = append(out, span{text: stripInline(text[last:loc[0]])})
		}
		out = append(out, span{text: stripInline(text[loc[2]:loc[3]]), bold: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, span{text: stripInline(text[last:])})
	}
	return out
}

func writeBlock(p *docx.Paragraph, b block) {
	if b.marker != "" {
		p.AddText(b.marker).Font(fontName).Size(b.size).Color(fontColor).Bold(true)
	}
	for _, s := range b.spans {
		if s.text == "" {
			continue
		}
		run := p.AddText(s.text).Font(fontName).Size(b.size).Color(fontColor)
		if s.bold {
			run.Bold(true)
		}
	}
}

// stripInline drops leftover emphasis and code markers.
func stripInline(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}
