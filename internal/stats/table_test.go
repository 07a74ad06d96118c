package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Mood", "Ticks", "Share"}
	rows := [][]string{
		{"calm", "12", "97.5%"},
		{"mysterious", "3", "2.5%"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Mood       Ticks Share" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "calm          12 97.5%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "mysterious     3  2.5%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil lines, got %v", lines)
	}
}
