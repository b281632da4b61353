package board

import "testing"

func mustBoard(t *testing.T) *Board {
	t.Helper()
	b, err := New(10, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func place(t *testing.T, b *Board, s Stone, cells ...[2]int) {
	t.Helper()
	for _, c := range cells {
		if err := b.Set(c[0], c[1], s); err != nil {
			t.Fatalf("Set(%d,%d): %v", c[0], c[1], err)
		}
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	if _, err := New(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := New(10, -1); err == nil {
		t.Fatalf("expected error for negative height")
	}
}

func TestBoundsAndOccupancy(t *testing.T) {
	b := mustBoard(t)
	if !b.InBounds(0, 0) || !b.InBounds(9, 9) {
		t.Fatalf("corners should be in bounds")
	}
	if b.InBounds(-1, 0) || b.InBounds(0, 10) {
		t.Fatalf("out-of-range coordinates reported in bounds")
	}
	if err := b.Set(10, 0, Player1); err == nil {
		t.Fatalf("expected out-of-bounds set to fail")
	}
	place(t, b, Blocker, [2]int{3, 3})
	if b.IsEmpty(3, 3) {
		t.Fatalf("blocker cell must count as occupied")
	}
	if !b.IsEmpty(4, 4) {
		t.Fatalf("untouched cell should be empty")
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	b := mustBoard(t)
	place(t, b, Player1, [2]int{0, 0})
	snap := b.Snapshot()
	snap[0] = byte(int8(Player2))
	if b.At(0, 0) != Player1 {
		t.Fatalf("mutating a snapshot must not touch the board")
	}
	if got := FromByte(b.Snapshot()[0]); got != Player1 {
		t.Fatalf("snapshot cell = %v, want player1", got)
	}
	if got := FromByte(b.Snapshot()[1]); got != Empty {
		t.Fatalf("empty cell decoded as %v", got)
	}
}

func TestFiveInARowAxes(t *testing.T) {
	tests := []struct {
		name  string
		cells [][2]int
		last  [2]int
	}{
		{"horizontal", [][2]int{{2, 5}, {3, 5}, {4, 5}, {5, 5}, {6, 5}}, [2]int{6, 5}},
		{"vertical", [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}, [2]int{0, 4}},
		{"diagonal-down", [][2]int{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}, [2]int{5, 5}},
		{"diagonal-up", [][2]int{{1, 8}, {2, 7}, {3, 6}, {4, 5}, {5, 4}}, [2]int{1, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t)
			// shorter runs never detect
			for i, c := range tt.cells {
				place(t, b, Player1, c)
				if i < len(tt.cells)-1 && b.HasFiveInARow(c[0], c[1], Player1) {
					t.Fatalf("run of %d reported as five", i+1)
				}
			}
			for _, c := range tt.cells {
				if !b.HasFiveInARow(c[0], c[1], Player1) {
					t.Fatalf("five-in-a-row not detected from (%d,%d)", c[0], c[1])
				}
			}
			if b.HasFiveInARow(tt.last[0], tt.last[1], Player2) {
				t.Fatalf("opponent must not win on this run")
			}
		})
	}
}

func TestBlockerBreaksRun(t *testing.T) {
	b := mustBoard(t)
	place(t, b, Player1, [2]int{0, 0}, [2]int{1, 0}, [2]int{3, 0}, [2]int{4, 0}, [2]int{5, 0})
	place(t, b, Blocker, [2]int{2, 0})
	for _, c := range [][2]int{{0, 0}, {1, 0}, {3, 0}, {4, 0}, {5, 0}} {
		if b.HasFiveInARow(c[0], c[1], Player1) {
			t.Fatalf("blocker-interrupted run reported as five from (%d,%d)", c[0], c[1])
		}
	}
	// blocker is never a run's terminus
	if b.HasFiveInARow(2, 0, Player1) {
		t.Fatalf("blocker cell must never anchor a run")
	}
}

func TestJokerExtendsAnyRun(t *testing.T) {
	b := mustBoard(t)
	place(t, b, Player1, [2]int{0, 0}, [2]int{1, 0}, [2]int{3, 0}, [2]int{4, 0})
	place(t, b, Joker, [2]int{2, 0})
	if !b.HasFiveInARow(4, 0, Player1) {
		t.Fatalf("joker should complete player1's run")
	}
	place(t, b, Player2, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3}, [2]int{2, 4})
	if !b.HasFiveInARow(2, 4, Player2) {
		t.Fatalf("the same joker should also serve player2")
	}
}

func TestSixInARowStillWins(t *testing.T) {
	b := mustBoard(t)
	place(t, b, Player1, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2}, [2]int{4, 2}, [2]int{5, 2})
	if !b.HasFiveInARow(5, 2, Player1) {
		t.Fatalf("run of six must still count as five-in-a-row")
	}
}

func TestFullBoard(t *testing.T) {
	b, err := New(5, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Full() {
		t.Fatalf("fresh board reported full")
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			_ = b.Set(x, y, Player1)
		}
	}
	if !b.Full() {
		t.Fatalf("filled board reported not full")
	}
	b.Reset()
	if b.Full() || b.At(2, 2) != Empty {
		t.Fatalf("reset must clear the board")
	}
}
