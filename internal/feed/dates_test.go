package feed

import "testing"

func TestParseDate_AcceptsCommonLayouts(t *testing.T) {
	cases := []string{
		"Mon, 02 Jan 2006 15:04:05 +0000",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	}
	for _, c := range cases {
		if _, err := parseDate(c); err != nil {
			t.Errorf("parseDate(%q) failed: %v", c, err)
		}
	}
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	if _, err := parseDate("not a date"); err == nil {
		t.Error("expected an error for an unparseable date string")
	}
}
