package lod

import (
	"testing"

	"github.com/matzehuels/flowlens/pkg/errors"
)

func TestValidateZoom(t *testing.T) {
	tests := []struct {
		name    string
		zoom    []float64
		wantErr bool
	}{
		{"default", []float64{0.1, 2}, false},
		{"three levels", []float64{0.1, 1, 2}, false},
		{"descending", []float64{2, 1}, true},
		{"single", []float64{1}, true},
		{"empty", nil, true},
		{"equal neighbours", []float64{0.1, 1, 1}, true},
		{"too many", []float64{0.1, 0.5, 1, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateZoom(tt.zoom)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateZoom(%v) error = %v, wantErr %v", tt.zoom, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidZoom) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidZoom)
			}
		})
	}
}

func TestNewClampsInitialLevel(t *testing.T) {
	tests := []struct {
		zoom    []float64
		initial int
		want    int
	}{
		{[]float64{0.1, 2}, 1, 1},
		{[]float64{0.1, 2}, 4, 1},
		{[]float64{0.1, 1, 2}, 1, 1},
		{[]float64{0.1, 1, 2}, 5, 2},
		{[]float64{0.1, 1, 2}, -3, 0},
	}
	for _, tt := range tests {
		c, err := New(tt.zoom, tt.initial, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c.Level() != tt.want {
			t.Errorf("New(%v, %d).Level() = %d, want %d", tt.zoom, tt.initial, c.Level(), tt.want)
		}
	}
}

func TestUpdateSingleStep(t *testing.T) {
	var changes []int
	c, err := New([]float64{0.1, 1, 2}, 1, func(lod int) { changes = append(changes, lod) })
	if err != nil {
		t.Fatal(err)
	}

	if !c.Update(0.05) || c.Level() != 0 {
		t.Fatalf("Update(0.05): level = %d, want 0", c.Level())
	}
	c.Update(5)
	if c.Level() > 1 {
		t.Errorf("Update(5) jumped to level %d, want at most 1", c.Level())
	}
	if c.Level() != 1 {
		t.Errorf("Update(5): level = %d, want 1", c.Level())
	}
	if len(changes) != 2 || changes[0] != 0 || changes[1] != 1 {
		t.Errorf("onChange calls = %v, want [0 1]", changes)
	}
}

func TestUpdateSequence(t *testing.T) {
	c, _ := New([]float64{0.1, 1, 2}, 0, nil)

	steps := []struct {
		k    float64
		want int
	}{
		{0.5, 0},
		{1, 1},   // reaching zoom[1] steps up
		{1.5, 1}, // below zoom[2], stays
		{3, 1},   // already at the top level
		{0.9, 0}, // below zoom[1] steps down
		{0.01, 0},
	}
	for _, s := range steps {
		c.Update(s.k)
		if c.Level() != s.want {
			t.Errorf("after Update(%g): level = %d, want %d", s.k, c.Level(), s.want)
		}
	}
}

// The default thresholds start detailed. Zooming below zoom[1] drops to the
// coarse level, and with a single reachable level it is never left again.
func TestUpdateDefaultThresholds(t *testing.T) {
	c, err := New(DefaultZoom, DefaultLevel, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Level() != 1 || !c.Detailed() {
		t.Fatalf("initial level = %d, want detailed level 1", c.Level())
	}

	steps := []struct {
		k    float64
		want int
	}{
		{5, 1},
		{10, 1},
		{0.5, 0},
		{50, 0},
		{2, 0},
	}
	for _, s := range steps {
		c.Update(s.k)
		if c.Level() != s.want {
			t.Errorf("after Update(%g): level = %d, want %d", s.k, c.Level(), s.want)
		}
	}
}

func TestUpdateIgnoresRepeatedScale(t *testing.T) {
	calls := 0
	c, _ := New([]float64{0.1, 1, 2}, 1, func(int) { calls++ })

	c.Update(0.05)
	c.Update(0.05)
	if calls != 1 {
		t.Errorf("onChange called %d times, want 1", calls)
	}
	if c.Scale() != 0.05 {
		t.Errorf("Scale() = %g, want 0.05", c.Scale())
	}
}

func TestDetailedAndClamp(t *testing.T) {
	c, _ := New([]float64{0.1, 1, 2}, 1, nil)
	if !c.Detailed() {
		t.Error("level 1 should be detailed")
	}
	if got := c.Clamp(10); got != 2 {
		t.Errorf("Clamp(10) = %g, want 2", got)
	}
	if got := c.Clamp(0.01); got != 0.1 {
		t.Errorf("Clamp(0.01) = %g, want 0.1", got)
	}
	if !c.Set(0) || c.Detailed() {
		t.Error("Set(0) should switch to the coarse level")
	}
}
