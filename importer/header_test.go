package importer

import (
	"testing"
)

func dates(days []dayColumn) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.date.String()
	}
	return out
}

func TestParseDateHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		year   int
		want   []string
	}{
		{
			name:   "day numbers roll into the next month",
			header: []string{"", "", "", "30", "31", "1", "29"},
			year:   2024,
			want:   []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-29"},
		},
		{
			name:   "day that does not fit the month advances it",
			header: []string{"", "", "", "1/2", "28", "29"},
			year:   2025,
			want:   []string{"2025-02-01", "2025-02-28", "2025-03-29"},
		},
		{
			name:   "text dates re-anchor the month",
			header: []string{"", "", "", "1/3", "2", "3/4/2025", "4"},
			year:   2025,
			want:   []string{"2025-03-01", "2025-03-02", "2025-04-03", "2025-04-04"},
		},
		{
			name:   "date serials",
			header: []string{"", "", "", "45658", "2"},
			year:   2025,
			want:   []string{"2025-01-01", "2025-01-02"},
		},
		{
			name:   "stops at the first non-date",
			header: []string{"", "", "", "1", "2", "Total", "3"},
			year:   2025,
			want:   []string{"2025-01-01", "2025-01-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dates(parseDateHeader(tt.header, 3, tt.year))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("day %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}
