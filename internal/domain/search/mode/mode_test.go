package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Incremental, Delimited} {
		if !m.IsValid() {
			t.Errorf("%v.IsValid() = false, want true", m)
		}
	}
	for _, m := range []Mode{-1, 2, 42} {
		if m.IsValid() {
			t.Errorf("%v.IsValid() = true, want false", m)
		}
	}
}

func TestWireValues(t *testing.T) {
	if Incremental != 0 || Delimited != 1 {
		t.Errorf("mode values = %d, %d", Incremental, Delimited)
	}
	if TitleOnly != 0 || TitleSynopsis != 1 {
		t.Errorf("match values = %d, %d", TitleOnly, TitleSynopsis)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Incremental, false},
		{"incremental", Incremental, false},
		{"delimited", Delimited, false},
		{"DELIMITED", 0, true},
		{"fuzzy", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseMatch_RoundTrip(t *testing.T) {
	for _, m := range []Match{TitleOnly, TitleSynopsis} {
		got, err := ParseMatch(m.String())
		if err != nil {
			t.Fatalf("ParseMatch(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseMatch(%q) = %v", m.String(), got)
		}
	}
	if _, err := ParseMatch("body"); err == nil {
		t.Error("expected error for unknown scope")
	}
}
