package graphviz

import (
	"reflect"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
)

func TestParseSpline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []graph.Point
	}{
		{
			name: "plain",
			in:   "10,20 30,40 50,60 70,80",
			want: []graph.Point{{X: 10, Y: 20}, {X: 30, Y: 40}, {X: 50, Y: 60}, {X: 70, Y: 80}},
		},
		{
			name: "arrowhead",
			in:   "e,70,90 10,20 30,40 50,60 70,80",
			want: []graph.Point{{X: 10, Y: 20}, {X: 30, Y: 40}, {X: 50, Y: 60}, {X: 70, Y: 80}, {X: 70, Y: 90}},
		},
		{
			name: "both ends",
			in:   "s,1,2 e,9,9 3,4 5,6 7,8 9,8",
			want: []graph.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}, {X: 9, Y: 8}, {X: 9, Y: 9}},
		},
		{
			name: "first of several",
			in:   "1,1 2,2 3,3 4,4;5,5 6,6 7,7 8,8",
			want: []graph.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}},
		},
		{name: "empty", in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSpline(tt.in)
			if err != nil {
				t.Fatalf("parseSpline() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSpline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := parseSpline("1,2 x,3"); err == nil {
		t.Error("parseSpline accepted a bad point")
	}
	if _, err := parsePoint("12"); err == nil {
		t.Error("parsePoint accepted a single number")
	}
	if _, _, _, _, err := parseBB("0,0,10"); err == nil {
		t.Error("parseBB accepted three values")
	}
	if _, err := nodeBox(frame{}, "1,1", "wide", "1"); err == nil {
		t.Error("nodeBox accepted a bad width")
	}
}

func TestFrame(t *testing.T) {
	// Graphviz box from (10,0) to (210,100); y grows upwards.
	f := frame{llx: 10, ury: 100}

	box, err := nodeBox(f, "110,80", "1", "0.5")
	if err != nil {
		t.Fatal(err)
	}
	if want := (layout.Box{X: 100, Y: 20, Width: 72, Height: 36}); box != want {
		t.Errorf("nodeBox() = %+v, want %+v", box, want)
	}

	box, err = clusterBox(f, "20,10,120,90")
	if err != nil {
		t.Fatal(err)
	}
	if want := (layout.Box{X: 60, Y: 50, Width: 100, Height: 80}); box != want {
		t.Errorf("clusterBox() = %+v, want %+v", box, want)
	}

	got := transform(f, []graph.Point{{X: 10, Y: 100}, {X: 210, Y: 0}})
	if want := []graph.Point{{X: 0, Y: 0}, {X: 200, Y: 100}}; !reflect.DeepEqual(got, want) {
		t.Errorf("transform() = %v, want %v", got, want)
	}
}
