package metascore

import "testing"

func loadTable(t *testing.T) *VenueTable {
	t.Helper()
	table, err := DefaultVenueTable()
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestVenueScore(t *testing.T) {
	table := loadTable(t)
	tests := []struct {
		name  string
		venue string
		want  float64
	}{
		{"chi main", "Proceedings of the CHI Conference on Human Factors in Computing Systems", Tier1Score},
		// The extended-abstract marker must win over the tier-1 venue name.
		{"chi ea", "Extended Abstracts of the CHI Conference on Human Factors in Computing Systems", Tier3Score},
		{"uist", "Proceedings of the ACM Symposium on User Interface Software and Technology", Tier1Score},
		{"cscw", "Proceedings of the ACM on Human-Computer Interaction (CSCW)", Tier2Score},
		{"workshop", "CHI Workshop on Sustainable Interaction", Tier3Score},
		{"sigchi catchall", "Some SIGCHI-sponsored venue", Tier1Score},
		{"unknown", "Regional Symposium on Obscure Topics", DefaultScore},
		{"empty", "", DefaultScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Score(tt.venue); got != tt.want {
				t.Errorf("Score(%q) = %v, want %v", tt.venue, got, tt.want)
			}
		})
	}
}

func TestVenueAbbreviate(t *testing.T) {
	table := loadTable(t)
	tests := []struct {
		name  string
		venue string
		want  string
	}{
		{"chi with year", "Proceedings of the 2024 CHI Conference on Human Factors in Computing Systems", "CHI 2024"},
		// EA rule must apply before the plain CHI rule.
		{"chi ea", "Extended Abstracts of the 2023 CHI Conference on Human Factors in Computing Systems", "CHI EA 2023"},
		{"uist no year", "ACM Symposium on User Interface Software and Technology", "UIST"},
		{"cscw companion", "Companion Publication of the Conference on Computer Supported Cooperative Work", "CSCW Companion"},
		{"short unknown kept", "Journal of Niche Results", "Journal of Niche Results"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Abbreviate(tt.venue); got != tt.want {
				t.Errorf("Abbreviate(%q) = %q, want %q", tt.venue, got, tt.want)
			}
		})
	}
}

func TestVenueAbbreviateTruncatesUnknown(t *testing.T) {
	table := loadTable(t)
	long := "Proceedings of the 3rd Annual ACM International Gathering of Exceptionally Verbose Venue Names in Interactive Research"
	got := table.Abbreviate(long)
	if len(got) > 50 {
		t.Errorf("len = %d: %q", len(got), got)
	}
}

func TestTypeScore(t *testing.T) {
	tests := []struct {
		itemType string
		want     float64
	}{
		{"journalArticle", 3},
		{"conferencePaper", 3},
		{"preprint", 2},
		{"webpage", 1},
		{"podcast", DefaultTypeScore},
		{"", DefaultTypeScore},
	}
	for _, tt := range tests {
		if got := TypeScore(tt.itemType); got != tt.want {
			t.Errorf("TypeScore(%q) = %v, want %v", tt.itemType, got, tt.want)
		}
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"2023", 2023, true},
		{"2023.0", 2023, true},
		{" 1999 ", 1999, true},
		{"1900", 0, false},
		{"2026", 0, false},
		{"n.d.", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got := ParseYear(tt.raw)
		if tt.ok {
			if got == nil || *got != tt.want {
				t.Errorf("ParseYear(%q) = %v, want %d", tt.raw, got, tt.want)
			}
		} else if got != nil {
			t.Errorf("ParseYear(%q) = %d, want nil", tt.raw, *got)
		}
	}
}

func TestAgesImputesMedian(t *testing.T) {
	y := func(n int) *int { return &n }
	ages := Ages([]*int{y(2023), y(2015), nil, y(2019)})
	// Known ages 2, 10, 6; median 6 imputed for the missing year.
	want := []float64{2, 10, 6, 6}
	for i := range want {
		if ages[i] != want[i] {
			t.Errorf("ages[%d] = %v, want %v", i, ages[i], want[i])
		}
	}
}

func TestAgesAllMissing(t *testing.T) {
	for _, age := range Ages([]*int{nil, nil}) {
		if age != 0 {
			t.Errorf("age = %v, want 0", age)
		}
	}
}

func TestIsReview(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"A Survey of Haptic Rendering", true},
		{"Remote Collaboration: A Review", true},
		{"A Systematic Review of VR Sickness", true},
		{"Meta-Analysis of Pointing Studies", true},
		{"Reviewing Code Together in Real Time", false},
		{"Designing Interfaces for Surveyors", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReview(tt.title); got != tt.want {
			t.Errorf("IsReview(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
