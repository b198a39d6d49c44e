package supply

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
)

func manifest() *game.Manifest {
	return &game.Manifest{
		Tiles: []game.ManifestTile{
			{BaseTile: "city1", TileColor: "yellow", Labels: []string{"57"}},
			{BaseTile: "curve", TileColor: "yellow", Labels: []string{"7"}},
			{BaseTile: "city1", TileColor: "green", Labels: []string{"14"}},
		},
		Amounts: map[string]int{"57": 4, "7": 3, "14": 2},
	}
}

func logOf(t *testing.T, actions ...gamelog.Action) *gamelog.Log {
	t.Helper()
	l := gamelog.New("1830")
	for _, a := range actions {
		if err := l.Append(a); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return l
}

func TestRemaining_TwoLaysOfSameTile(t *testing.T) {
	l := logOf(t,
		gamelog.TileLay(board.Labeled("B4"), "57", "N"),
		gamelog.TileLay(board.Labeled("D6"), "57", "N"),
	)
	got, err := Remaining(manifest(), l)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if got["57"] != 2 {
		t.Fatalf("57 remaining=%d", got["57"])
	}
}

func TestRemaining_UpgradeReturnsOldTile(t *testing.T) {
	l := logOf(t,
		gamelog.TileLay(board.Labeled("B4"), "57", "N"),
		gamelog.TileLay(board.At(1, 1), "14", "SE"),
		gamelog.TileLay(board.Labeled("C3"), "7", "N"),
		gamelog.Token(board.Labeled("B4"), "PRR"),
	)
	got, err := Remaining(manifest(), l)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	want := map[string]int{"57": 4, "7": 2, "14": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("remaining (-want +got):\n%s", diff)
	}
}

func TestRemaining_NilLogAndInputsUntouched(t *testing.T) {
	m := manifest()
	got, err := Remaining(m, nil)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	got["57"] = 0
	if m.Amounts["57"] != 4 {
		t.Fatalf("manifest amounts mutated")
	}
}

func TestRemaining_MissingAmount(t *testing.T) {
	l := logOf(t, gamelog.TileLay(board.Labeled("B4"), "99", "N"))
	if _, err := Remaining(manifest(), l); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}

	m := manifest()
	delete(m.Amounts, "14")
	if _, err := Remaining(m, nil); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}
}

func TestUsed_DropsReturnedTiles(t *testing.T) {
	l := logOf(t,
		gamelog.TileLay(board.Labeled("B4"), "57", "N"),
		gamelog.TileLay(board.Labeled("B4"), "14", "N"),
	)
	got, err := Used(l)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"14": 1}, got); diff != "" {
		t.Fatalf("used (-want +got):\n%s", diff)
	}
}

func TestUsed_LabelsCountedHorizontally(t *testing.T) {
	// A3 is (0,1) when letters are columns.
	same := logOf(t,
		gamelog.TileLay(board.Labeled("A3"), "57", "N"),
		gamelog.TileLay(board.At(0, 1), "14", "N"),
	)
	used, err := Used(same)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"14": 1}, used); diff != "" {
		t.Fatalf("used (-want +got):\n%s", diff)
	}

	// (1,0) is where a vertical board draws A3; bookkeeping sees another hex.
	other := logOf(t,
		gamelog.TileLay(board.Labeled("A3"), "57", "N"),
		gamelog.TileLay(board.At(1, 0), "14", "N"),
	)
	used, err = Used(other)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"57": 1, "14": 1}, used); diff != "" {
		t.Fatalf("used (-want +got):\n%s", diff)
	}
}
