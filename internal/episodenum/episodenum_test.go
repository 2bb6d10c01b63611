package episodenum

import "testing"

func TestFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  int
		ok    bool
	}{
		{"Show S02E05", 5, true},
		{"show s1e12 1080p", 12, true},
		{"Show Episode 7", 7, true},
		{"Show Ep. 3", 3, true},
		{"show ep9", 9, true},
		{"Show - 05", 5, true},
		{"Show #14", 14, true},
		{"Show 08", 8, true},
		{"Show Title", 0, false},
		{"", 0, false},
		{"Episode 0", 0, false},
	}
	for _, tc := range cases {
		got, ok := FromTitle(tc.title)
		if got != tc.want || ok != tc.ok {
			t.Errorf("FromTitle(%q) = (%d, %v), want (%d, %v)", tc.title, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFromTitlePrefersSeasonEpisodeForm(t *testing.T) {
	got, ok := FromTitle("Show 2024 S01E03")
	if !ok || got != 3 {
		t.Fatalf("FromTitle = (%d, %v), want (3, true)", got, ok)
	}
}
