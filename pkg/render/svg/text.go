package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	fontHeightRatio = 0.5
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 8.0
	fontSizeMax     = 16.0
)

// FontSize returns the label size that fits the box.
func FontSize(b Box) float64 { return fontSizeFor(b.W, b.H, len(b.Label)) }

func fontSizeFor(availWidth, availHeight float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := availHeight * fontHeightRatio
	byWidth := (availWidth * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// TruncateLabel shortens the label to the width of its box.
func TruncateLabel(b Box) string {
	label := b.Label
	charWidth := FontSize(b) * fontCharWidth
	maxChars := max(3, int(b.W*fontWidthRatio/charWidth))
	if len(label) <= maxChars {
		return label
	}
	return label[:maxChars-2] + ".."
}

func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func WrapURL(buf *bytes.Buffer, url string, fn func()) {
	if url != "" {
		fmt.Fprintf(buf, `  <a href="%s" target="_blank">`, EscapeXML(url))
	}
	fn()
	if url != "" {
		buf.WriteString("</a>\n")
	}
}

// tooltip joins a title line with "key: value" lines in key order.
func tooltip(title string, attr map[string]string) string {
	lines := []string{title}
	for _, k := range slices.Sorted(maps.Keys(attr)) {
		lines = append(lines, k+": "+attr[k])
	}
	return strings.Join(lines, "\n")
}
