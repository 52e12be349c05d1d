package evaluation

import "testing"

func TestAcceptsScore(t *testing.T) {
	positive := Item{Max: 3}
	deduction := Item{Max: -5}
	enumerated := Item{Max: 5, ValidScores: []int{0, 3, 5}}

	tests := []struct {
		name  string
		item  Item
		score *int
		want  bool
	}{
		{name: "nil clears", item: positive, score: nil, want: true},
		{name: "positive in range", item: positive, score: IntPtr(3), want: true},
		{name: "positive above max", item: positive, score: IntPtr(4), want: false},
		{name: "positive negative", item: positive, score: IntPtr(-1), want: false},
		{name: "deduction in range", item: deduction, score: IntPtr(-5), want: true},
		{name: "deduction below max", item: deduction, score: IntPtr(-6), want: false},
		{name: "deduction positive", item: deduction, score: IntPtr(1), want: false},
		{name: "enumerated member", item: enumerated, score: IntPtr(3), want: true},
		{name: "enumerated non member", item: enumerated, score: IntPtr(4), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.AcceptsScore(tc.score); got != tc.want {
				t.Fatalf("AcceptsScore(%v) = %v, want %v", tc.score, got, tc.want)
			}
		})
	}
}

func TestValidEmployeeID(t *testing.T) {
	for _, id := range []string{"", "A123", "abc", "0042"} {
		if !ValidEmployeeID(id) {
			t.Fatalf("expected %q to be valid", id)
		}
	}
	for _, id := range []string{"A-123", "12 3", "山田", "a_b"} {
		if ValidEmployeeID(id) {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}

func TestIncidentTracked(t *testing.T) {
	if !(Item{SubCategory: SubCategoryComplaint}).IncidentTracked() {
		t.Fatal("complaint items are incident-tracked")
	}
	if !(Item{SubCategory: SubCategoryAccident}).IncidentTracked() {
		t.Fatal("accident items are incident-tracked")
	}
	if (Item{SubCategory: "挨拶"}).IncidentTracked() {
		t.Fatal("ordinary items are not incident-tracked")
	}
}

func TestPerformanceDataValid(t *testing.T) {
	p := DefaultPerformance()
	if !p.Valid() {
		t.Fatal("default performance should be valid")
	}
	p.MonthlyCuts = p.MonthlyCuts[:11]
	if p.Valid() {
		t.Fatal("short monthly cuts should be invalid")
	}
	p = DefaultPerformance()
	p.MonthlyCuts[0] = -1
	if p.Valid() {
		t.Fatal("negative count should be invalid")
	}
}
