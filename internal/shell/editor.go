// Package shell implements the interactive query terminal: a line editor
// with history, a dispatcher that runs one query at a time, and the
// bubbletea event loop that ties them to the terminal.
package shell

import (
	"strings"
	"unicode/utf8"
)

// maxHistory bounds the in-memory history list. History is never persisted.
const maxHistory = 1000

// Editor owns an editable UTF-8 buffer, a byte-offset cursor that always
// sits on a character boundary, and the submitted-query history.
type Editor struct {
	buffer  string
	cursor  int
	history []string
	// historyIdx is an index into history while browsing, -1 otherwise.
	historyIdx int
}

// NewEditor returns an empty editor not browsing history.
func NewEditor() *Editor {
	return &Editor{historyIdx: -1}
}

// Buffer returns the current input text.
func (e *Editor) Buffer() string { return e.buffer }

// Cursor returns the cursor's byte offset into the buffer.
func (e *Editor) Cursor() int { return e.cursor }

// History returns the stored queries, oldest first.
func (e *Editor) History() []string { return e.history }

// Browsing reports whether Up/Down are currently walking history.
func (e *Editor) Browsing() bool { return e.historyIdx >= 0 }

// Insert splices a character at the cursor and advances past it.
func (e *Editor) Insert(r rune) {
	e.buffer = e.buffer[:e.cursor] + string(r) + e.buffer[e.cursor:]
	e.cursor += utf8.RuneLen(r)
	e.historyIdx = -1
}

// InsertString splices a string at the cursor, for bracketed paste.
func (e *Editor) InsertString(s string) {
	for _, r := range s {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		e.Insert(r)
	}
}

// Backspace removes the character before the cursor; no-op at the start.
func (e *Editor) Backspace() {
	if e.cursor == 0 {
		return
	}
	prev := prevCharBoundary(e.buffer, e.cursor)
	e.buffer = e.buffer[:prev] + e.buffer[e.cursor:]
	e.cursor = prev
	e.historyIdx = -1
}

// Delete removes the character after the cursor; no-op at the end.
func (e *Editor) Delete() {
	if e.cursor >= len(e.buffer) {
		return
	}
	next := nextCharBoundary(e.buffer, e.cursor)
	e.buffer = e.buffer[:e.cursor] + e.buffer[next:]
	e.historyIdx = -1
}

// MoveLeft moves the cursor to the previous character boundary.
func (e *Editor) MoveLeft() {
	if e.cursor == 0 {
		return
	}
	e.cursor = prevCharBoundary(e.buffer, e.cursor)
}

// MoveRight moves the cursor to the next character boundary.
func (e *Editor) MoveRight() {
	if e.cursor >= len(e.buffer) {
		return
	}
	e.cursor = nextCharBoundary(e.buffer, e.cursor)
}

// MoveHome moves the cursor to the start of the buffer.
func (e *Editor) MoveHome() { e.cursor = 0 }

// MoveEnd moves the cursor to the end of the buffer.
func (e *Editor) MoveEnd() { e.cursor = len(e.buffer) }

// Clear empties the buffer and leaves history browsing.
func (e *Editor) Clear() {
	e.buffer = ""
	e.cursor = 0
	e.historyIdx = -1
}

// PushHistory stores a submitted query. Empty (after trimming) queries and
// immediate duplicates are dropped; browsing state always resets.
func (e *Editor) PushHistory(query string) {
	defer func() { e.historyIdx = -1 }()
	if strings.TrimSpace(query) == "" {
		return
	}
	if len(e.history) > 0 && e.history[len(e.history)-1] == query {
		return
	}
	e.history = append(e.history, query)
	if len(e.history) > maxHistory {
		e.history = e.history[len(e.history)-maxHistory:]
	}
}

// HistoryPrev selects the most recent entry, or one entry older while
// already browsing, clamped at the oldest. No-op without history.
func (e *Editor) HistoryPrev() {
	if len(e.history) == 0 {
		return
	}
	switch {
	case e.historyIdx < 0:
		e.historyIdx = len(e.history) - 1
	case e.historyIdx > 0:
		e.historyIdx--
	}
	e.buffer = e.history[e.historyIdx]
	e.cursor = len(e.buffer)
}

// HistoryNext moves one entry newer. Moving past the newest entry leaves
// browsing mode and returns to a blank prompt.
func (e *Editor) HistoryNext() {
	if e.historyIdx < 0 {
		return
	}
	if e.historyIdx+1 >= len(e.history) {
		e.Clear()
		return
	}
	e.historyIdx++
	e.buffer = e.history[e.historyIdx]
	e.cursor = len(e.buffer)
}

// VisibleWindow clips the buffer to a display budget, sliding so the cursor
// stays inside the window. It returns the visible substring and the cursor's
// column within it. Window edges snap outward to character boundaries so a
// multi-byte character is never split.
func (e *Editor) VisibleWindow(width int) (string, int) {
	if width <= 0 {
		return "", 0
	}

	start := e.cursor - width
	if start < 0 {
		start = 0
	}
	for start > 0 && !isCharBoundary(e.buffer, start) {
		start--
	}

	end := start + width
	if end > len(e.buffer) {
		end = len(e.buffer)
	}
	for end < len(e.buffer) && !isCharBoundary(e.buffer, end) {
		end++
	}

	return e.buffer[start:end], e.cursor - start
}

func isCharBoundary(s string, idx int) bool {
	if idx == 0 || idx == len(s) {
		return true
	}
	if idx < 0 || idx > len(s) {
		return false
	}
	return utf8.RuneStart(s[idx])
}

func prevCharBoundary(s string, idx int) int {
	_, size := utf8.DecodeLastRuneInString(s[:idx])
	if size == 0 {
		return 0
	}
	return idx - size
}

func nextCharBoundary(s string, idx int) int {
	if idx >= len(s) {
		return len(s)
	}
	_, size := utf8.DecodeRuneInString(s[idx:])
	return idx + size
}
