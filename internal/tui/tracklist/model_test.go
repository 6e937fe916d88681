package tracklist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/tunelocal/internal/data"
	"github.com/hazadus/tunelocal/internal/library"
	tuiPlayer "github.com/hazadus/tunelocal/internal/tui/player"
)

func testView(active int) library.View {
	return library.Build([]data.Track{
		{ID: 3, Name: "Test Track 1", FileName: "Test Track 1.mp3", Size: 500000},
		{ID: 8, Name: "Test Track 2", FileName: "Test Track 2.mp3", Size: 2000000},
	}, active)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModel(t *testing.T) {
	model := NewModel(testView(-1))

	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if len(model.list.Items()) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(model.list.Items()))
	}
	if model.list.Title != "Библиотека (2)" {
		t.Errorf("Unexpected title: %s", model.list.Title)
	}
}

func TestEmptyView(t *testing.T) {
	model := NewModel(library.Build(nil, -1))

	view := model.View()
	if !strings.Contains(view, library.EmptyTitle) || !strings.Contains(view, library.EmptyHint) {
		t.Errorf("Expected empty library message, got:\n%s", view)
	}

	// Очистка пустой библиотеки не запрашивает подтверждение
	model, _ = model.Update(key('c'))
	if model.confirmClear {
		t.Error("Clear confirmation should not be shown for empty library")
	}
}

func TestSetViewRefreshesItems(t *testing.T) {
	model := NewModel(testView(-1))
	model.SetView(library.Build([]data.Track{{ID: 8, Name: "Test Track 2"}}, 0))

	if len(model.list.Items()) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(model.list.Items()))
	}
	item := model.list.Items()[0].(trackItem)
	if !item.entry.Playing || item.entry.ID != 8 {
		t.Errorf("Unexpected entry: %+v", item.entry)
	}
}

func TestRenderItem(t *testing.T) {
	view := testView(1)

	playing := renderItem(view.Entries[1], false)
	for _, want := range []string{"♪", "2.", "Test Track 2", "1.91 MB"} {
		if !strings.Contains(playing, want) {
			t.Errorf("Rendered row %q does not contain %q", playing, want)
		}
	}

	idle := renderItem(view.Entries[0], true)
	if strings.Contains(idle, "♪") {
		t.Errorf("Idle row should not have playing marker: %q", idle)
	}
	if !strings.Contains(idle, "> ") || !strings.Contains(idle, "488.28 KB") {
		t.Errorf("Unexpected selected row: %q", idle)
	}
}

func TestKeyHandling(t *testing.T) {
	model := NewModel(testView(-1))

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if msg, ok := cmd().(TrackSelectedMsg); !ok || msg.ID != 3 {
		t.Errorf("Expected TrackSelectedMsg{ID: 3}, got %+v", msg)
	}

	_, cmd = model.Update(key('d'))
	if msg, ok := cmd().(TrackDeleteMsg); !ok || msg.ID != 3 {
		t.Errorf("Expected TrackDeleteMsg{ID: 3}, got %+v", msg)
	}

	_, cmd = model.Update(key('a'))
	if _, ok := cmd().(ImportMsg); !ok {
		t.Error("Expected ImportMsg for 'a'")
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if _, ok := cmd().(OpenPlayerMsg); !ok {
		t.Error("Expected OpenPlayerMsg for tab")
	}

	_, cmd = model.Update(key('n'))
	if msg, ok := cmd().(tuiPlayer.ControlMsg); !ok || msg.Control != tuiPlayer.ControlNext {
		t.Errorf("Expected ControlNext, got %+v", msg)
	}
}

func TestClearConfirmation(t *testing.T) {
	model := NewModel(testView(-1))

	model, cmd := model.Update(key('c'))
	if cmd != nil || !model.confirmClear {
		t.Fatal("Expected clear confirmation prompt")
	}
	if !strings.Contains(model.View(), "Удалить все треки (2)?") {
		t.Error("Expected confirmation text in view")
	}

	// Любая другая клавиша отменяет очистку
	model, cmd = model.Update(key('n'))
	if cmd != nil || model.confirmClear {
		t.Error("Expected clear to be cancelled")
	}

	model, _ = model.Update(key('c'))
	_, cmd = model.Update(key('y'))
	if cmd == nil {
		t.Fatal("Expected command after confirmation")
	}
	if _, ok := cmd().(ClearLibraryMsg); !ok {
		t.Error("Expected ClearLibraryMsg after confirmation")
	}
}
