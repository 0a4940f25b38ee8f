// Package config edits the INI-like configuration files of Klipper and Moonraker.
//
// Files are edited line by line so that everything outside of the touched
// section (comments, indented G-code macros, the "#*#" SAVE_CONFIG block)
// is written back byte for byte.
package config

import (
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`^\[([^\]]+)\]\s*([#;].*)?$`)
	optionRegex = regexp.MustCompile(`^([^\s#;\[][^:=]*?)\s*[:=]\s*(.*)$`)

	// Inline comments need leading whitespace, so "color: #ff0000" keeps its value.
	inlineCommentRegex = regexp.MustCompile(`\s+[#;].*$`)
)

// autosaveMarker starts the block Klipper rewrites on SAVE_CONFIG. It must stay last in printer.cfg.
const autosaveMarker = "#*# <---------------------- SAVE_CONFIG ---------------------->"

// Option is a single key/value pair of a section.
type Option struct {
	Key   string
	Value string
}

// Document is a parsed configuration file.
type Document struct {
	lines []string
}

// Parse splits the content into lines, dropping the final newline.
func Parse(content []byte) *Document {
	text := strings.TrimSuffix(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if text == "" {
		return &Document{lines: []string{}}
	}

	return &Document{lines: strings.Split(text, "\n")}
}

// Bytes renders the document with a trailing newline.
func (d *Document) Bytes() []byte {
	if len(d.lines) == 0 {
		return []byte{}
	}

	return []byte(strings.Join(d.lines, "\n") + "\n")
}

// HasSection reports whether the named section exists.
func (d *Document) HasSection(name string) bool {
	start, _ := d.find(name)

	return start >= 0
}

// Options returns the options of the named section, in file order.
// Indented continuation lines are folded into the preceding value and
// inline comments are dropped from single line values.
func (d *Document) Options(name string) ([]Option, bool) {
	start, end := d.find(name)
	if start < 0 {
		return nil, false
	}

	options := []Option{}

	for _, line := range d.lines[start+1 : end] {
		if isContinuation(line) && len(options) > 0 {
			options[len(options)-1].Value += "\n" + strings.TrimSpace(line)

			continue
		}

		m := optionRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		options = append(options, Option{Key: m[1], Value: strings.TrimRight(inlineCommentRegex.ReplaceAllString(m[2], ""), " \t")})
	}

	return options, true
}

// Set makes the named section hold exactly the given options. A missing
// section is added: "include" sections go before the first section, any
// other section goes at the end of the document but ahead of Klipper's
// SAVE_CONFIG block. An existing section with different options has its body
// replaced in place. It returns false when the section already matched.
func (d *Document) Set(name string, options []Option) bool {
	current, ok := d.Options(name)
	if ok && sameOptions(current, options) {
		return false
	}

	body := renderOptions(options)

	if !ok {
		block := append([]string{"[" + normalizeName(name) + "]"}, body...)
		d.insert(d.insertionPoint(name), block)

		return true
	}

	start, end := d.find(name)

	// Keep the blank lines and comments that separate the section from the next one.
	keepFrom := d.trailerStart(start, end)

	lines := make([]string, 0, len(d.lines))
	lines = append(lines, d.lines[:start+1]...)
	lines = append(lines, body...)
	lines = append(lines, d.lines[keepFrom:]...)
	d.lines = lines

	return true
}

// Remove deletes the named section and its options. It returns false if the section didn't exist.
func (d *Document) Remove(name string) bool {
	start, end := d.find(name)
	if start < 0 {
		return false
	}

	keepFrom := end
	if end < len(d.lines) {
		// Comments directly attached to the next section belong to it.
		keepFrom = d.attachedComments(start, end)
	}

	lines := make([]string, 0, len(d.lines))
	lines = append(lines, d.lines[:start]...)
	lines = append(lines, d.lines[keepFrom:]...)

	// Don't leave blank lines at the end of the file.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	// Don't leave a double blank line where the section used to be.
	if start > 0 && start < len(lines) && strings.TrimSpace(lines[start-1]) == "" && strings.TrimSpace(lines[start]) == "" {
		lines = append(lines[:start], lines[start+1:]...)
	}

	d.lines = lines

	return true
}

// find returns the header index of the named section and the index of the
// line following its body, or -1 if not found.
func (d *Document) find(name string) (int, int) {
	name = normalizeName(name)

	start := -1

	for i, line := range d.lines {
		if start >= 0 && isAutosave(line) {
			return start, i
		}

		current, ok := sectionName(line)
		if !ok {
			continue
		}

		if start >= 0 {
			return start, i
		}

		if current == name {
			start = i
		}
	}

	if start < 0 {
		return -1, -1
	}

	return start, len(d.lines)
}

// insertionPoint returns the line index where a new section should be added.
func (d *Document) insertionPoint(name string) int {
	if strings.HasPrefix(normalizeName(name), "include ") {
		for i, line := range d.lines {
			_, ok := sectionName(line)
			if !ok {
				continue
			}

			// Stay above the comments describing the first section.
			for i > 0 && isComment(strings.TrimSpace(d.lines[i-1])) {
				i--
			}

			return i
		}
	}

	for i, line := range d.lines {
		if isAutosave(line) {
			return i
		}
	}

	return len(d.lines)
}

// insert adds a block of lines at idx, keeping it separated by blank lines.
func (d *Document) insert(idx int, block []string) {
	if idx > 0 && strings.TrimSpace(d.lines[idx-1]) != "" {
		block = append([]string{""}, block...)
	}

	if idx < len(d.lines) {
		block = append(block, "")
	}

	lines := make([]string, 0, len(d.lines)+len(block))
	lines = append(lines, d.lines[:idx]...)
	lines = append(lines, block...)
	lines = append(lines, d.lines[idx:]...)
	d.lines = lines
}

// trailerStart returns the index where the trailing blank/comment lines of a section body begin.
func (d *Document) trailerStart(start int, end int) int {
	i := end
	for i > start+1 {
		line := strings.TrimSpace(d.lines[i-1])
		if line != "" && !isComment(line) {
			break
		}

		i--
	}

	return i
}

// attachedComments returns the index of the first line of the comment block
// that sits right above the header at end, preceded by a blank line.
func (d *Document) attachedComments(start int, end int) int {
	i := end
	for i > start+1 && isComment(strings.TrimSpace(d.lines[i-1])) {
		i--
	}

	if i == end || strings.TrimSpace(d.lines[i-1]) != "" {
		return end
	}

	return i
}

func sectionName(line string) (string, bool) {
	m := headerRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	return normalizeName(m[1]), true
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func renderOptions(options []Option) []string {
	lines := make([]string, 0, len(options))

	for _, opt := range options {
		values := strings.Split(opt.Value, "\n")

		lines = append(lines, opt.Key+": "+values[0])
		for _, v := range values[1:] {
			lines = append(lines, "  "+v)
		}
	}

	return lines
}

func sameOptions(a []Option, b []Option) bool {
	if len(a) != len(b) {
		return false
	}

	values := make(map[string]string, len(a))
	for _, opt := range a {
		values[opt.Key] = opt.Value
	}

	for _, opt := range b {
		v, ok := values[opt.Key]
		if !ok || v != opt.Value {
			return false
		}
	}

	return true
}

func isContinuation(line string) bool {
	return strings.TrimSpace(line) != "" && (line[0] == ' ' || line[0] == '\t')
}

func isAutosave(line string) bool {
	return strings.HasPrefix(line, autosaveMarker)
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";")
}
