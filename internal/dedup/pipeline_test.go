package dedup

import (
	"testing"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestDetectDuplicatesFindsChecksumGroups(t *testing.T) {
	idx := newFakeIndex(
		testFile("a", "report.pdf", "/Docs/report.pdf", 1024, "x", baseTime),
		testFile("b", "report copy.pdf", "/Docs/report copy.pdf", 1024, "x", baseTime.Add(time.Hour)),
		testFile("c", "other.pdf", "/Docs/other.pdf", 1024, "y", baseTime),
		testFile("d", "unique.pdf", "/Docs/unique.pdf", 2048, "z", baseTime),
	)

	groups, err := NewPipeline(idx, NewNopLogger()).DetectDuplicates(DetectOptions{})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.MD5 != "x" || g.Count() != 2 || g.Size != 1024 {
		t.Errorf("group = md5 %q count %d size %d, want x/2/1024", g.MD5, g.Count(), g.Size)
	}
}

func TestDetectDuplicatesSameSizeDifferentContent(t *testing.T) {
	// Same size alone is not duplication; the checksum pass must prune these.
	idx := newFakeIndex(
		testFile("a", "a.bin", "/a.bin", 10, "A", baseTime),
		testFile("b", "b.bin", "/b.bin", 10, "B", baseTime),
		testFile("c", "c.bin", "/c.bin", 20, "C", baseTime),
	)

	groups, err := NewPipeline(idx, NewNopLogger()).DetectDuplicates(DetectOptions{})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}

func TestDetectDuplicatesMinSizeFloor(t *testing.T) {
	idx := newFakeIndex(
		testFile("a", "small.txt", "/small.txt", 100, "s", baseTime),
		testFile("b", "small2.txt", "/small2.txt", 100, "s", baseTime),
		testFile("c", "big.txt", "/big.txt", 5000, "g", baseTime),
		testFile("d", "big2.txt", "/big2.txt", 5000, "g", baseTime),
	)

	groups, err := NewPipeline(idx, NewNopLogger()).DetectDuplicates(DetectOptions{MinSize: 1000})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Size != 5000 {
		t.Errorf("group size = %d, want 5000", groups[0].Size)
	}
}

func TestDetectDuplicatesIgnoresTrashedAndChecksumless(t *testing.T) {
	trashed := testFile("b", "doc2.txt", "/doc2.txt", 1024, "x", baseTime)
	trashed.Trashed = true
	noMD5 := testFile("d", "native-doc", "/native-doc", 1024, "", baseTime)

	idx := newFakeIndex(
		testFile("a", "doc.txt", "/doc.txt", 1024, "x", baseTime),
		trashed,
		noMD5,
	)

	groups, err := NewPipeline(idx, NewNopLogger()).DetectDuplicates(DetectOptions{})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}

func TestDetectDuplicatesOrdersByWastedSize(t *testing.T) {
	idx := newFakeIndex(
		// Wasted 100 bytes.
		testFile("a", "small.bin", "/small.bin", 100, "s", baseTime),
		testFile("b", "small2.bin", "/small2.bin", 100, "s", baseTime),
		// Wasted 6000 bytes.
		testFile("c", "big.bin", "/big.bin", 3000, "g", baseTime),
		testFile("d", "big2.bin", "/big2.bin", 3000, "g", baseTime),
		testFile("e", "big3.bin", "/big3.bin", 3000, "g", baseTime),
	)

	groups, err := NewPipeline(idx, NewNopLogger()).DetectDuplicates(DetectOptions{})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].MD5 != "g" {
		t.Errorf("first group md5 = %q, want the larger waste first", groups[0].MD5)
	}
	if groups[0].GroupID == groups[1].GroupID {
		t.Error("group IDs must be distinct")
	}
}

func TestBytePassIsIdentity(t *testing.T) {
	p := NewPipeline(newFakeIndex(), NewNopLogger())
	in := map[string][]string{"x": {"a", "b"}}

	out := p.BytePass(in)
	if len(out) != 1 || len(out["x"]) != 2 {
		t.Errorf("byte pass altered groups: %v", out)
	}
}

func TestDetectDuplicatesEmptyIndex(t *testing.T) {
	groups, err := NewPipeline(newFakeIndex(), NewNopLogger()).DetectDuplicates(DetectOptions{})
	if err != nil {
		t.Fatalf("DetectDuplicates: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups from empty index", len(groups))
	}
}
