package namemerge

import "testing"

func TestMergeSingleNameUnchanged(t *testing.T) {
	m := NewMerger()
	if got := m.MergeNames([]string{"beach (1).jpg"}, 0); got != "beach (1).jpg" {
		t.Errorf("single-name merge = %q, want input unchanged", got)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	m := NewMerger()
	if got := m.MergeNames(nil, 0); got != "" {
		t.Errorf("empty merge = %q, want empty", got)
	}
}

func TestMergePrefersOldestDateAndDeduplicatesWords(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"2024-01-15_beach.jpg",
		"IMG_20240114_beach_trip.jpg",
	}, 0)

	want := "2024-01-14-beach-IMG-trip.jpg"
	if got != want {
		t.Errorf("merge = %q, want %q", got, want)
	}
}

func TestMergeAppendsTimeOnlyWithDate(t *testing.T) {
	m := NewMerger()

	got := m.MergeNames([]string{
		"IMG_20240114_021450.jpg",
		"beach.jpg",
	}, 0)
	want := "2024-01-14-02-14-50-IMG-beach.jpg"
	if got != want {
		t.Errorf("merge with date+time = %q, want %q", got, want)
	}
}

func TestMergeWordsOnly(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"vacation (1).jpg",
		"sunset copy.jpg",
	}, 0)

	want := "vacation-sunset.jpg"
	if got != want {
		t.Errorf("merge = %q, want %q", got, want)
	}
}

func TestMergeCaseInsensitiveWordDedup(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"Beach.jpg",
		"beach party.jpg",
	}, 0)

	// First-seen case is retained.
	want := "Beach-party.jpg"
	if got != want {
		t.Errorf("merge = %q, want %q", got, want)
	}
}

func TestMergeFallsBackToFirstNonGenericName(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"1a2b3c4d.jpg", // generic: hash-like
		"x1 2.jpg",     // nothing extractable, not generic
	}, 0)

	if got != "x1 2.jpg" {
		t.Errorf("merge = %q, want fallback to first non-generic name", got)
	}
}

func TestMergeAllGenericFallsBackToFirstName(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"1a2b3c4d.jpg",
		"9f8e7d6c.jpg",
	}, 0)

	if got != "1a2b3c4d.jpg" {
		t.Errorf("merge = %q, want very first name", got)
	}
}

func TestMergeSizeSuffix(t *testing.T) {
	m := NewMerger()

	tests := []struct {
		size int64
		want string
	}{
		{512, "vacation-sunset-512B.jpg"},
		{5 * 1024, "vacation-sunset-5KB.jpg"},
		{3 * 1024 * 1024, "vacation-sunset-3MB.jpg"},
		{2 * 1024 * 1024 * 1024, "vacation-sunset-2GB.jpg"},
	}

	names := []string{"vacation (1).jpg", "sunset copy.jpg"}
	for _, tt := range tests {
		if got := m.MergeNames(names, tt.size); got != tt.want {
			t.Errorf("MergeNames(size=%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestMergeFirstNonEmptyExtension(t *testing.T) {
	m := NewMerger()
	got := m.MergeNames([]string{
		"notes_final",
		"notes_v2.txt",
	}, 0)

	// "v2" has no two consecutive letters and is dropped as non-descriptive.
	want := "notes-final.txt"
	if got != want {
		t.Errorf("merge = %q, want %q", got, want)
	}
}
