package textlayer

import (
	"regexp"
	"strings"
)

var (
	linkToken  = regexp.MustCompile(`<(https?://[^>\s]+)>`)
	cellBreak  = regexp.MustCompile(`\t|\s{2,}`)
	textColTol = 2.0
)

// decodeText reads the plain-text layer format: pages separated by form
// feeds, cells separated by a tab or two or more spaces, and hyperlinks
// written as <http...> tokens.
func decodeText(s string) *Document {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	pages := strings.Split(s, "\f")

	b := &builder{doc: &Document{ColumnTolerance: textColTol}}
	for i, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			var links []string
			for _, m := range linkToken.FindAllStringSubmatch(raw, -1) {
				links = append(links, m[1])
			}
			// Blank the link tokens out so cell offsets stay put.
			raw = linkToken.ReplaceAllStringFunc(raw, func(m string) string {
				return strings.Repeat(" ", len([]rune(m)))
			})
			b.add(i+1, splitTextCells(raw), links)
		}
	}
	b.doc.Pages = len(pages)
	return b.doc
}

func splitTextCells(line string) []Cell {
	line = strings.TrimRight(line, " \t\r")
	var cells []Cell
	start := 0
	emit := func(end int) {
		seg := line[start:end]
		text := collapse(seg)
		if text == "" {
			return
		}
		lead := len(seg) - len(strings.TrimLeft(seg, " \t"))
		cells = append(cells, Cell{Text: text, X: float64(runeCount(line[:start+lead]))})
	}
	for _, loc := range cellBreak.FindAllStringIndex(line, -1) {
		emit(loc[0])
		start = loc[1]
	}
	emit(len(line))
	return cells
}

func runeCount(s string) int {
	return len([]rune(s))
}
