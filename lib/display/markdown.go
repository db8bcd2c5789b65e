// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/encoding/charmap"
)

// Palette slots used for Markdown elements. The session maps each
// slot to a caller-configurable attribute through the |#d pipe code.
const (
	colorNormal   = 0
	colorStrong   = 1
	colorHeading  = 2
	colorEmphasis = 3
	colorCode     = 5
	colorLink     = 7
	colorQuote    = 9
)

const wrapBreakpoints = " ,.;-+"

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Rendering carries zero-width private CSI markers in place of pipe
// codes through the wrap step, so wrapped widths count only visible
// text. finish swaps the markers for |#d.
var colorMarker = regexp.MustCompile("\x1b\\[([0-9])z")

func marker(color int) string {
	return fmt.Sprintf("\x1b[%dz", color)
}

// Markdown renders source to pipe-coded CP437 text with CR LF line
// ends, wrapped to options.Width.
func Markdown(source []byte, options Options) string {
	options = options.withDefaults()
	document := markdownParser.Parser().Parse(text.NewReader(source))

	renderer := &markdownRenderer{
		source:  source,
		options: options,
		width:   options.Width - 1,
		last:    -1,
	}
	ast.Walk(document, renderer.walk)
	return renderer.finish()
}

type markdownRenderer struct {
	source  []byte
	options Options
	width   int

	output           strings.Builder
	trailingNewlines int

	// inline collects a paragraph's marked-up text until the block
	// closes and it can be wrapped as a unit.
	inline strings.Builder
	last   int

	prefixes      []prefixLevel
	linePrefix    string
	prefixWidth   int
	pendingBullet string

	strongCount   int
	emphasisCount int
	headingLevel  int
	lists         []listState
	colored       bool
}

type prefixLevel struct {
	text  string
	width int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (r *markdownRenderer) currentWidth() int {
	return max(r.width-r.prefixWidth, 10)
}

func (r *markdownRenderer) pushPrefix(prefix string, width int) {
	r.prefixes = append(r.prefixes, prefixLevel{prefix, width})
	r.linePrefix += prefix
	r.prefixWidth += width
}

func (r *markdownRenderer) popPrefix() {
	if len(r.prefixes) == 0 {
		return
	}
	top := r.prefixes[len(r.prefixes)-1]
	r.prefixes = r.prefixes[:len(r.prefixes)-1]
	r.linePrefix = r.linePrefix[:len(r.linePrefix)-len(top.text)]
	r.prefixWidth -= top.width
}

func (r *markdownRenderer) inTightList() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

func (r *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	r.output.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		r.trailingNewlines += len(s)
	} else {
		r.trailingNewlines = len(s) - len(trimmed)
	}
}

func (r *markdownRenderer) ensureNewline() {
	if r.output.Len() > 0 && r.trailingNewlines < 1 {
		r.writeOutput("\n")
	}
}

func (r *markdownRenderer) ensureBlankLine() {
	if r.output.Len() == 0 {
		return
	}
	for r.trailingNewlines < 2 {
		r.writeOutput("\n")
	}
}

// color writes text into the inline buffer, switching palette slots
// only when the slot changes.
func (r *markdownRenderer) color(slot int, content string) {
	if content == "" {
		return
	}
	if slot != r.last {
		r.inline.WriteString(marker(slot))
		r.last = slot
		r.colored = true
	}
	r.inline.WriteString(content)
}

func (r *markdownRenderer) textSlot() int {
	switch {
	case r.headingLevel > 0:
		return colorHeading
	case r.strongCount > 0:
		return colorStrong
	case r.emphasisCount > 0:
		return colorEmphasis
	}
	return colorNormal
}

func (r *markdownRenderer) resetInline() {
	r.inline.Reset()
	r.last = -1
}

// applyPrefixes puts the nesting prefix in front of every line. A
// prefix may carry its own color, so the text color in force at that
// point is restated after it.
func (r *markdownRenderer) applyPrefixes(content string) string {
	var result strings.Builder
	current := colorNormal
	for index, line := range strings.Split(content, "\n") {
		if index > 0 {
			result.WriteString("\n")
		}
		prefix := r.linePrefix
		if r.pendingBullet != "" {
			prefix = r.pendingBullet
			r.pendingBullet = ""
		}
		result.WriteString(prefix)
		if prefix != "" && !strings.HasPrefix(line, "\x1b[") {
			result.WriteString(marker(current))
		}
		result.WriteString(line)
		if found := colorMarker.FindAllStringSubmatch(line, -1); len(found) > 0 {
			current = int(found[len(found)-1][1][0] - '0')
		}
	}
	return result.String()
}

func (r *markdownRenderer) flushInline() string {
	content := r.inline.String()
	r.resetInline()
	if strings.TrimSpace(colorMarker.ReplaceAllString(content, "")) == "" {
		return ""
	}
	return r.applyPrefixes(ansi.Wrap(content, r.currentWidth(), wrapBreakpoints))
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.resetInline()
			return ast.WalkContinue, nil
		}
		if flushed := r.flushInline(); flushed != "" {
			r.writeOutput(flushed)
			r.ensureNewline()
			if !r.inTightList() {
				r.ensureBlankLine()
			}
		}

	case ast.KindHeading:
		heading := node.(*ast.Heading)
		if entering {
			r.resetInline()
			r.headingLevel = heading.Level
			return ast.WalkContinue, nil
		}
		r.leaveHeading(heading)

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			r.renderCode(r.blockText(node), string(block.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			r.renderCode(r.blockText(node), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.ensureBlankLine()
			r.pushPrefix(marker(colorQuote)+"│ ", 2)
			r.colored = true
		} else {
			r.popPrefix()
			r.ensureBlankLine()
		}

	case ast.KindList:
		list := node.(*ast.List)
		if entering {
			start := 0
			if list.IsOrdered() {
				start = list.Start
			}
			r.lists = append(r.lists, listState{ordered: list.IsOrdered(), counter: start, tight: list.IsTight})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if !r.inTightList() {
				r.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			r.enterListItem()
		} else {
			r.popPrefix()
			if r.inTightList() {
				r.ensureNewline()
			} else {
				r.ensureBlankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			r.ensureBlankLine()
			r.writeOutput(r.linePrefix + marker(colorLink) + strings.Repeat("─", r.currentWidth()))
			r.colored = true
			r.ensureNewline()
			r.ensureBlankLine()
		}

	case ast.KindHTMLBlock, ast.KindRawHTML:
		return ast.WalkSkipChildren, nil

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			r.color(r.textSlot(), string(textNode.Segment.Value(r.source)))
			if textNode.SoftLineBreak() {
				r.color(r.textSlot(), " ")
			}
			if textNode.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			r.color(r.textSlot(), string(node.(*ast.String).Value))
		}

	case ast.KindEmphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.(*ast.Emphasis).Level >= 2 {
			r.strongCount += delta
		} else {
			r.emphasisCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if segment, ok := child.(*ast.Text); ok {
					code.Write(segment.Segment.Value(r.source))
				}
			}
			r.color(colorCode, code.String())
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			if destination := string(node.(*ast.Link).Destination); destination != "" {
				r.color(colorLink, " ("+destination+")")
			}
		}

	case ast.KindAutoLink:
		if entering {
			r.color(colorLink, string(node.(*ast.AutoLink).URL(r.source)))
		}

	case ast.KindImage:
		if entering {
			alt := colorMarker.ReplaceAllString(r.inlineContent(node), "")
			r.color(colorLink, "["+alt+"]")
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				r.color(colorStrong, "[x] ")
			} else {
				r.color(r.textSlot(), "[ ] ")
			}
		}

	case extast.KindTable:
		if entering {
			r.renderTable(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *markdownRenderer) leaveHeading(heading *ast.Heading) {
	r.headingLevel = 0
	content := r.inline.String()
	r.resetInline()
	if content == "" {
		return
	}
	r.ensureBlankLine()
	wrapped := ansi.Wrap(content, r.currentWidth(), wrapBreakpoints)
	r.writeOutput(r.applyPrefixes(wrapped))
	if heading.Level <= 2 {
		underline := "="
		if heading.Level == 2 {
			underline = "-"
		}
		widest := 0
		for _, line := range strings.Split(wrapped, "\n") {
			widest = max(widest, ansi.StringWidth(line))
		}
		r.writeOutput("\n" + r.linePrefix + marker(colorHeading) + strings.Repeat(underline, widest))
	}
	r.ensureNewline()
	r.ensureBlankLine()
}

func (r *markdownRenderer) blockText(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for index := range lines.Len() {
		segment := lines.At(index)
		code.Write(segment.Value(r.source))
	}
	return code.String()
}

// renderCode writes a code block unwrapped. ANSI callers get chroma
// highlighting in the eight-color palette every BBS terminal has.
func (r *markdownRenderer) renderCode(code, language string) {
	code = strings.TrimRight(code, "\n")
	r.ensureBlankLine()
	if r.options.ANSI && language != "" {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, code, language, "terminal8", "monokai"); err == nil {
			code = strings.TrimRight(highlighted.String(), "\n")
			for _, line := range strings.Split(code, "\n") {
				r.writeOutput(r.linePrefix + "  " + line + "\x1b[0m")
				r.ensureNewline()
			}
			r.colored = true
			r.ensureBlankLine()
			return
		}
	}
	for _, line := range strings.Split(code, "\n") {
		r.writeOutput(r.linePrefix + marker(colorCode) + "  " + line)
		r.ensureNewline()
	}
	r.colored = true
	r.ensureBlankLine()
}

func (r *markdownRenderer) enterListItem() {
	if len(r.lists) == 0 {
		return
	}
	top := &r.lists[len(r.lists)-1]
	bullet := "* "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}
	r.pendingBullet = r.linePrefix + marker(colorStrong) + bullet
	r.colored = true
	r.pushPrefix(strings.Repeat(" ", len(bullet)), len(bullet))
}

func (r *markdownRenderer) inlineContent(node ast.Node) string {
	saved := r.inline.String()
	savedLast := r.last
	r.resetInline()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, r.walk)
	}
	content := r.inline.String()
	r.inline.Reset()
	r.inline.WriteString(saved)
	r.last = savedLast
	return content
}

func (r *markdownRenderer) renderTable(table ast.Node) {
	var rows [][]string
	header := 0
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		if row.Kind() == extast.KindTableHeader {
			header = 1
		}
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, colorMarker.ReplaceAllString(r.inlineContent(cell), ""))
		}
		rows = append(rows, cells)
	}

	var widths []int
	for _, row := range rows {
		for column, cell := range row {
			if column >= len(widths) {
				widths = append(widths, 0)
			}
			widths[column] = max(widths[column], ansi.StringWidth(cell))
		}
	}

	r.ensureBlankLine()
	for index, row := range rows {
		var line strings.Builder
		line.WriteString(r.linePrefix)
		for column, cell := range row {
			if column > 0 {
				line.WriteString(marker(colorLink) + " │ ")
			}
			slot := colorNormal
			if index < header {
				slot = colorHeading
			}
			line.WriteString(marker(slot) + cell + strings.Repeat(" ", widths[column]-ansi.StringWidth(cell)))
		}
		r.writeOutput(strings.TrimRight(line.String(), " "))
		r.ensureNewline()
		if index+1 == header {
			total := 0
			for _, width := range widths {
				total += width
			}
			total += 3 * (len(widths) - 1)
			r.writeOutput(r.linePrefix + marker(colorLink) + strings.Repeat("─", total))
			r.ensureNewline()
		}
	}
	r.colored = true
	r.ensureBlankLine()
}

// finish converts the markers to pipe codes and the text to CP437.
func (r *markdownRenderer) finish() string {
	out := strings.TrimRight(r.output.String(), "\n")
	if out == "" {
		return ""
	}
	out = colorMarker.ReplaceAllString(out, "|#$1")
	if r.colored {
		out += "|#0"
	}
	return strings.ReplaceAll(toCP437(out), "\n", "\r\n") + "\r\n"
}

// toCP437 re-encodes UTF-8 text for a CP437 terminal. Runes with no
// CP437 glyph become '?'.
func toCP437(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			out.WriteByte(byte(r))
			continue
		}
		if b, ok := charmap.CodePage437.EncodeRune(r); ok {
			out.WriteByte(b)
			continue
		}
		out.WriteByte('?')
	}
	return out.String()
}
