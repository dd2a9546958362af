package dedup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"drivedup/internal/model"
	"drivedup/internal/namemerge"
)

// Strategy decides which members of a duplicate group to trash.
//
// Contract: the returned list is always a strict subset of the group. At
// least one file is retained, in every branch including fallbacks.
//
// Every strategy except "path" honors an optional keepPath glob: when it
// matches at least one member, the matches are kept and the strategy's own
// selection rule is bypassed for that group.
type Strategy interface {
	Name() string
	SelectFilesToTrash(group *model.DuplicateGroup, keepPath string) []model.FileRecord
}

// StrategyNames is the closed set of valid strategy names.
var StrategyNames = []string{"newest", "oldest", "shortest", "longest", "deepest", "path", "merge-names"}

// GetStrategy returns the strategy for the given name.
func GetStrategy(name string, logger Logger) (Strategy, error) {
	switch strings.ToLower(name) {
	case "newest":
		return &keepStrategy{name: "newest", keep: (*model.DuplicateGroup).NewestFile}, nil
	case "oldest":
		return &keepStrategy{name: "oldest", keep: (*model.DuplicateGroup).OldestFile}, nil
	case "shortest":
		return &keepStrategy{name: "shortest", keep: (*model.DuplicateGroup).ShortestPath}, nil
	case "longest":
		return &keepStrategy{name: "longest", keep: (*model.DuplicateGroup).LongestPath}, nil
	case "deepest":
		return &keepStrategy{name: "deepest", keep: (*model.DuplicateGroup).DeepestPath}, nil
	case "path":
		return &keepPathStrategy{logger: logger}, nil
	case "merge-names":
		return &MergeNamesStrategy{
			keepStrategy: keepStrategy{name: "merge-names", keep: (*model.DuplicateGroup).NewestFile},
			merger:       namemerge.NewMerger(),
		}, nil
	default:
		return nil, fmt.Errorf("invalid strategy %q, valid options: %s", name, strings.Join(StrategyNames, ", "))
	}
}

// keepStrategy keeps the single member chosen by its selector and trashes
// the rest.
type keepStrategy struct {
	name string
	keep func(*model.DuplicateGroup) model.FileRecord
}

func (s *keepStrategy) Name() string { return s.name }

func (s *keepStrategy) SelectFilesToTrash(group *model.DuplicateGroup, keepPath string) []model.FileRecord {
	if trash, ok := applyKeepPath(group, keepPath); ok {
		return trash
	}

	keeper := s.keep(group)
	var trash []model.FileRecord
	for _, f := range group.Files {
		if f.ID != keeper.ID {
			trash = append(trash, f)
		}
	}
	return trash
}

// keepPathStrategy keeps all members whose path matches the glob and trashes
// the rest. With no pattern, or when nothing matches, it falls back to
// keeping the first member.
type keepPathStrategy struct {
	logger Logger
}

func (*keepPathStrategy) Name() string { return "path" }

func (s *keepPathStrategy) SelectFilesToTrash(group *model.DuplicateGroup, keepPath string) []model.FileRecord {
	if keepPath == "" {
		s.logger.Warn("no keep pattern specified for path strategy, keeping first file", "group", group.GroupID)
		return append([]model.FileRecord(nil), group.Files[1:]...)
	}

	var trash []model.FileRecord
	matched := false
	for _, f := range group.Files {
		if globMatch(keepPath, f.Path) {
			matched = true
		} else {
			trash = append(trash, f)
		}
	}

	if !matched {
		s.logger.Warn("no files match keep pattern, keeping first file",
			"pattern", keepPath, "group", group.GroupID)
		return append([]model.FileRecord(nil), group.Files[1:]...)
	}
	return trash
}

// MergeNamesStrategy keeps the newest member (content is identical, so which
// copy survives is arbitrary) and renames it to a merge of all members'
// names, so no filename information is lost when the rest are trashed.
type MergeNamesStrategy struct {
	keepStrategy
	merger *namemerge.Merger
}

// RenameInfo returns the surviving file and the merged name it should carry.
// includeSize appends a size suffix; callers use it to disambiguate when two
// groups would merge to the same name. ok is false when the merged name
// equals the survivor's current name (no rename needed).
func (s *MergeNamesStrategy) RenameInfo(group *model.DuplicateGroup, includeSize bool) (survivor model.FileRecord, newName string, ok bool) {
	names := make([]string, 0, len(group.Files))
	for _, f := range group.Files {
		names = append(names, f.Name)
	}

	var size int64
	if includeSize {
		size = group.Size
	}
	merged := s.merger.MergeNames(names, size)

	survivor = group.NewestFile()
	if merged == "" || merged == survivor.Name {
		return survivor, "", false
	}
	return survivor, merged, true
}

// applyKeepPath implements the universal keep-pattern override. It returns
// (trash, true) when the pattern matched at least one member.
func applyKeepPath(group *model.DuplicateGroup, keepPath string) ([]model.FileRecord, bool) {
	if keepPath == "" {
		return nil, false
	}

	var trash []model.FileRecord
	matched := false
	for _, f := range group.Files {
		if globMatch(keepPath, f.Path) {
			matched = true
		} else {
			trash = append(trash, f)
		}
	}
	if !matched {
		return nil, false
	}
	return trash, true
}

// globMatch matches a shell-style glob against a logical path. Unlike
// path.Match, `*` crosses path separators, which is what users expect when
// writing patterns like "/Photos/*".
func globMatch(pattern, path string) bool {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// ResolveNameConflicts detects merged names shared by more than one group and
// regenerates those with a size suffix. Returns the survivor and final name
// per group ID, skipping groups whose merge is a no-op.
func (s *MergeNamesStrategy) ResolveNameConflicts(groups []*model.DuplicateGroup) map[int]RenamePlan {
	plans := make(map[int]RenamePlan)
	nameToGroups := make(map[string][]int)

	for _, g := range groups {
		survivor, newName, ok := s.RenameInfo(g, false)
		if !ok {
			continue
		}
		plans[g.GroupID] = RenamePlan{File: survivor, NewName: newName}
		nameToGroups[newName] = append(nameToGroups[newName], g.GroupID)
	}

	byID := make(map[int]*model.DuplicateGroup, len(groups))
	for _, g := range groups {
		byID[g.GroupID] = g
	}

	for _, ids := range nameToGroups {
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			survivor, newName, ok := s.RenameInfo(byID[id], true)
			if !ok {
				delete(plans, id)
				continue
			}
			plans[id] = RenamePlan{File: survivor, NewName: newName}
		}
	}

	return plans
}

// RenamePlan is one pending survivor rename produced by merge-names.
type RenamePlan struct {
	File    model.FileRecord
	NewName string
}

// SortRenamePlans returns the plans in ascending group-ID order for
// deterministic execution and reporting.
func SortRenamePlans(plans map[int]RenamePlan) []RenamePlan {
	ids := make([]int, 0, len(plans))
	for id := range plans {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]RenamePlan, 0, len(ids))
	for _, id := range ids {
		out = append(out, plans[id])
	}
	return out
}
