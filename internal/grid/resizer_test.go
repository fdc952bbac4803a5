package grid

import "testing"

func TestResizerDrag(t *testing.T) {
	var reported []int
	r := NewResizer(func(col, width int) {
		if col != 1 {
			t.Errorf("reported column %d", col)
		}
		reported = append(reported, width)
	})

	if !r.Start(1, 3, 100, 120) {
		t.Fatal("Start refused a middle column")
	}
	tests := []struct {
		x    int
		want int
	}{
		{130, 150},
		{90, 110},
		{0, MinColumnWidth},
		{-500, MinColumnWidth},
	}
	for _, tt := range tests {
		got, ok := r.Move(tt.x)
		if !ok || got != tt.want {
			t.Errorf("Move(%d) = %d, %v; want %d", tt.x, got, ok, tt.want)
		}
	}
	if len(reported) != len(tests) {
		t.Errorf("reported %d widths", len(reported))
	}

	r.End()
	if r.Active() || r.Column() != -1 {
		t.Errorf("drag still active after End")
	}
	if _, ok := r.Move(400); ok {
		t.Errorf("Move after End reported a width")
	}
	r.End()
}

func TestResizerRefusesLastColumn(t *testing.T) {
	r := NewResizer(nil)
	if r.Start(2, 3, 0, 100) {
		t.Errorf("last column has no boundary handle")
	}
	if r.Start(-1, 3, 0, 100) {
		t.Errorf("negative column accepted")
	}
	if !r.Start(0, 3, 0, 100) {
		t.Fatal("first column refused")
	}
	if w, _ := r.Move(10); w != 110 {
		t.Errorf("width = %d", w)
	}
}
