package room

import "testing"

func TestLowestFreeID(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{"empty", nil, 1},
		{"contiguous", []int{1, 2, 3}, 4},
		{"gap at start", []int{2, 3}, 1},
		{"gap in middle", []int{1, 2, 4, 5}, 3},
		{"unordered", []int{5, 1, 3, 2}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := make(map[int]struct{})
			for _, id := range tt.existing {
				set[id] = struct{}{}
			}
			if got := LowestFreeID(set); got != tt.want {
				t.Errorf("wrong id expected: %d got: %d", tt.want, got)
			}
		})
	}
}
