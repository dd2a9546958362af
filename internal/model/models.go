package model

import (
	"sort"
	"strings"
	"time"
)

// FileRecord represents one file in the remote store as of the last scan.
// Records are written by the scanner and never mutated by detection.
type FileRecord struct {
	ID         string    // Opaque remote file ID
	Name       string    // Display name including extension
	Size       int64     // Size in bytes
	MD5        string    // Content checksum; empty for provider-native documents
	MIMEType   string    // MIME/content type
	CreatedAt  time.Time // Remote creation time (UTC)
	ModifiedAt time.Time // Remote modification time (UTC)
	Path       string    // Slash-delimited logical path, e.g. "/Photos/2024/beach.jpg"
	Trashed    bool      // Whether the file is in the remote trash
	OwnedByMe  bool      // Whether the current user owns the file
}

// Folder returns the path minus its final segment ("" for top-level paths).
func (f FileRecord) Folder() string {
	if i := strings.LastIndex(f.Path, "/"); i >= 0 {
		return f.Path[:i]
	}
	return ""
}

// PathDepth returns the number of path separators, used as a folder-depth measure.
func (f FileRecord) PathDepth() int {
	return strings.Count(f.Path, "/")
}

// DuplicateGroup is a set of two or more files with identical size and checksum.
// Groups are constructed fresh on every detection run; GroupID is not stable
// across runs.
type DuplicateGroup struct {
	GroupID int
	Size    int64
	MD5     string
	Files   []FileRecord
}

// Count returns the number of files in the group.
func (g *DuplicateGroup) Count() int { return len(g.Files) }

// TotalSize returns the combined size of all members.
func (g *DuplicateGroup) TotalSize() int64 { return g.Size * int64(len(g.Files)) }

// WastedSize returns the bytes reclaimed by keeping exactly one member.
func (g *DuplicateGroup) WastedSize() int64 { return g.Size * int64(len(g.Files)-1) }

// NewestFile returns the most recently modified member.
// Equal timestamps are broken by lowest file ID.
func (g *DuplicateGroup) NewestFile() FileRecord {
	return g.pick(func(a, b FileRecord) bool {
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.After(b.ModifiedAt)
		}
		return a.ID < b.ID
	})
}

// OldestFile returns the least recently modified member.
// Equal timestamps are broken by lowest file ID.
func (g *DuplicateGroup) OldestFile() FileRecord {
	return g.pick(func(a, b FileRecord) bool {
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.Before(b.ModifiedAt)
		}
		return a.ID < b.ID
	})
}

// ShortestPath returns the member with the shortest path string.
func (g *DuplicateGroup) ShortestPath() FileRecord {
	return g.pick(func(a, b FileRecord) bool {
		if len(a.Path) != len(b.Path) {
			return len(a.Path) < len(b.Path)
		}
		return a.ID < b.ID
	})
}

// LongestPath returns the member with the longest path string.
func (g *DuplicateGroup) LongestPath() FileRecord {
	return g.pick(func(a, b FileRecord) bool {
		if len(a.Path) != len(b.Path) {
			return len(a.Path) > len(b.Path)
		}
		return a.ID < b.ID
	})
}

// DeepestPath returns the member whose path has the most separators.
func (g *DuplicateGroup) DeepestPath() FileRecord {
	return g.pick(func(a, b FileRecord) bool {
		if a.PathDepth() != b.PathDepth() {
			return a.PathDepth() > b.PathDepth()
		}
		return a.ID < b.ID
	})
}

// AllInSameFolder reports whether every member lives in the same folder.
func (g *DuplicateGroup) AllInSameFolder() bool {
	if len(g.Files) <= 1 {
		return true
	}
	folder := g.Files[0].Folder()
	for _, f := range g.Files[1:] {
		if f.Folder() != folder {
			return false
		}
	}
	return true
}

// pick returns the member that wins under the given ordering.
func (g *DuplicateGroup) pick(less func(a, b FileRecord) bool) FileRecord {
	best := g.Files[0]
	for _, f := range g.Files[1:] {
		if less(f, best) {
			best = f
		}
	}
	return best
}

// Run is one recorded invocation of a scan or deletion operation.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time // nil while the run is in progress
	Operation  string     // "scan", "report" or "delete"
	Parameters string     // JSON-encoded options for auditability
	Status     string     // "running", "completed" or "failed"
}

// SortGroupsByWastedSize orders groups largest wasted size first, so the most
// valuable groups surface at the top of reports. Ties keep ascending group ID.
func SortGroupsByWastedSize(groups []*DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WastedSize() > groups[j].WastedSize()
	})
}
