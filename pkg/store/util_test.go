package store

import (
	"reflect"
	"testing"
)

func TestBatches(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{name: "uneven", items: []int{1, 2, 3, 4, 5, 6, 7}, size: 3, want: [][]int{{1, 2, 3}, {4, 5, 6}, {7}}},
		{name: "exact", items: []int{1, 2}, size: 2, want: [][]int{{1, 2}}},
		{name: "no size", items: []int{1, 2, 3}, size: 0, want: [][]int{{1, 2, 3}}},
		{name: "empty", items: nil, size: 5, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][]int
			for batch := range Batches(tt.items, tt.size) {
				got = append(got, batch)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Batches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchesStopsEarly(t *testing.T) {
	calls := 0
	for range Batches([]string{"a", "b", "c", "d"}, 1) {
		calls++
		break
	}
	if calls != 1 {
		t.Fatalf("expected 1 batch, got %d", calls)
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]string{"Frog", "", "Egg", "Frog", "Tadpole"})
	want := []string{"Frog", "Egg", "Tadpole"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Distinct() = %v, want %v", got, want)
	}
	if Distinct[string](nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}
