package shell

import (
	"math/rand"
	"testing"
	"unicode/utf8"
)

func TestInsertAdvancesByEncodedLength(t *testing.T) {
	e := NewEditor()
	e.Insert('a')
	if e.Cursor() != 1 {
		t.Errorf("cursor = %d after ASCII insert, want 1", e.Cursor())
	}
	e.Insert('é') // 2 bytes
	if e.Cursor() != 3 {
		t.Errorf("cursor = %d after 2-byte insert, want 3", e.Cursor())
	}
	e.Insert('日') // 3 bytes
	if e.Cursor() != 6 {
		t.Errorf("cursor = %d after 3-byte insert, want 6", e.Cursor())
	}
	if e.Buffer() != "aé日" {
		t.Errorf("buffer = %q, want %q", e.Buffer(), "aé日")
	}
}

func TestBackspaceRemovesWholeCharacter(t *testing.T) {
	e := NewEditor()
	for _, r := range "aé日" {
		e.Insert(r)
	}

	e.Backspace()
	if e.Buffer() != "aé" || e.Cursor() != 3 {
		t.Errorf("after backspace: buffer=%q cursor=%d", e.Buffer(), e.Cursor())
	}
	e.Backspace()
	if e.Buffer() != "a" || e.Cursor() != 1 {
		t.Errorf("after backspace: buffer=%q cursor=%d", e.Buffer(), e.Cursor())
	}
	e.Backspace()
	e.Backspace() // no-op at start
	if e.Buffer() != "" || e.Cursor() != 0 {
		t.Errorf("after draining: buffer=%q cursor=%d", e.Buffer(), e.Cursor())
	}
}

func TestDeleteAtBoundaries(t *testing.T) {
	e := NewEditor()
	for _, r := range "日x" {
		e.Insert(r)
	}
	e.MoveHome()
	e.Delete()
	if e.Buffer() != "x" || e.Cursor() != 0 {
		t.Errorf("after delete: buffer=%q cursor=%d", e.Buffer(), e.Cursor())
	}
	e.MoveEnd()
	e.Delete() // no-op at end
	if e.Buffer() != "x" {
		t.Errorf("delete at end mutated buffer: %q", e.Buffer())
	}
}

func TestCursorBoundaryInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	runes := []rune{'a', 'é', '日', '🙂', 'ß', 'z'}

	e := NewEditor()
	for i := 0; i < 5000; i++ {
		switch rng.Intn(8) {
		case 0, 1, 2:
			e.Insert(runes[rng.Intn(len(runes))])
		case 3:
			e.Backspace()
		case 4:
			e.Delete()
		case 5:
			e.MoveLeft()
		case 6:
			e.MoveRight()
		case 7:
			if rng.Intn(2) == 0 {
				e.MoveHome()
			} else {
				e.MoveEnd()
			}
		}

		if !utf8.ValidString(e.Buffer()) {
			t.Fatalf("op %d: buffer is not valid UTF-8: %q", i, e.Buffer())
		}
		if c := e.Cursor(); c < 0 || c > len(e.Buffer()) || !isCharBoundary(e.Buffer(), c) {
			t.Fatalf("op %d: cursor %d is not a character boundary of %q", i, c, e.Buffer())
		}
	}
}

func TestPushHistorySuppressesConsecutiveDuplicates(t *testing.T) {
	e := NewEditor()
	e.PushHistory("select 1")
	e.PushHistory("select 1")
	if got := len(e.History()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}

	e.PushHistory("select 2")
	e.PushHistory("select 1")
	want := []string{"select 1", "select 2", "select 1"}
	got := e.History()
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
}

func TestPushHistoryIgnoresBlankQueries(t *testing.T) {
	e := NewEditor()
	e.PushHistory("")
	e.PushHistory("   \t")
	if len(e.History()) != 0 {
		t.Errorf("history = %v, want empty", e.History())
	}
}

func TestHistoryBrowseWrap(t *testing.T) {
	e := NewEditor()
	e.PushHistory("one")
	e.PushHistory("two")
	e.PushHistory("three")

	e.HistoryPrev()
	if e.Buffer() != "three" || !e.Browsing() {
		t.Fatalf("after first prev: buffer=%q browsing=%v", e.Buffer(), e.Browsing())
	}
	if e.Cursor() != len("three") {
		t.Errorf("cursor = %d, want end of entry", e.Cursor())
	}

	e.HistoryPrev()
	e.HistoryPrev()
	e.HistoryPrev() // clamped at oldest
	if e.Buffer() != "one" {
		t.Fatalf("after prev past oldest: buffer=%q", e.Buffer())
	}

	e.HistoryNext()
	e.HistoryNext()
	if e.Buffer() != "three" {
		t.Fatalf("after two next: buffer=%q", e.Buffer())
	}

	// Past the newest entry: back to a blank prompt, not browsing.
	e.HistoryNext()
	if e.Buffer() != "" || e.Browsing() {
		t.Errorf("past newest: buffer=%q browsing=%v", e.Buffer(), e.Browsing())
	}

	// Next while not browsing stays a no-op.
	e.HistoryNext()
	if e.Buffer() != "" || e.Browsing() {
		t.Errorf("next while idle: buffer=%q browsing=%v", e.Buffer(), e.Browsing())
	}
}

func TestHistoryPrevEmptyHistoryIsNoop(t *testing.T) {
	e := NewEditor()
	e.HistoryPrev()
	if e.Browsing() || e.Buffer() != "" {
		t.Errorf("prev on empty history: buffer=%q browsing=%v", e.Buffer(), e.Browsing())
	}
}

func TestEditingCancelsBrowsing(t *testing.T) {
	e := NewEditor()
	e.PushHistory("select 1")
	e.HistoryPrev()
	if !e.Browsing() {
		t.Fatal("expected browsing after prev")
	}
	e.Insert('x')
	if e.Browsing() {
		t.Error("insert did not cancel browsing")
	}

	e.HistoryPrev()
	e.Backspace()
	if e.Browsing() {
		t.Error("backspace did not cancel browsing")
	}

	e.HistoryPrev()
	e.Clear()
	if e.Browsing() {
		t.Error("clear did not cancel browsing")
	}
}

func TestVisibleWindowSlidesWithCursor(t *testing.T) {
	e := NewEditor()
	for _, r := range "abcdefghij" {
		e.Insert(r)
	}

	visible, col := e.VisibleWindow(4)
	if visible != "ghij" || col != 4 {
		t.Errorf("window = %q col=%d, want %q col=4", visible, col, "ghij")
	}

	e.MoveHome()
	visible, col = e.VisibleWindow(4)
	if visible != "abcd" || col != 0 {
		t.Errorf("window = %q col=%d, want %q col=0", visible, col, "abcd")
	}
}

func TestVisibleWindowNeverSplitsCharacters(t *testing.T) {
	e := NewEditor()
	for _, r := range "日本語のテキスト" {
		e.Insert(r)
	}

	for width := 1; width <= len(e.Buffer())+2; width++ {
		visible, col := e.VisibleWindow(width)
		if !utf8.ValidString(visible) {
			t.Fatalf("width %d: window %q splits a character", width, visible)
		}
		if col < 0 || col > len(visible) {
			t.Fatalf("width %d: cursor column %d outside window %q", width, col, visible)
		}
	}
}

func TestVisibleWindowZeroWidth(t *testing.T) {
	e := NewEditor()
	e.Insert('a')
	visible, col := e.VisibleWindow(0)
	if visible != "" || col != 0 {
		t.Errorf("zero width window = %q col=%d", visible, col)
	}
}
