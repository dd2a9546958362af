package dedup

import (
	"fmt"

	"drivedup/internal/model"
)

// DetectOptions control a detection run.
type DetectOptions struct {
	// MinSize is the size floor in bytes; smaller files are ignored.
	MinSize int64

	// ByteCompare enables the byte-verification pass. When false (the
	// default), checksum equality is the trust boundary.
	ByteCompare bool
}

// Pipeline runs the multi-pass duplicate-detection funnel over the index.
//
// The passes form a strict chain: a cheap size partition prunes the vast
// majority of candidates, checksum equality proves duplication among the
// survivors, and an optional byte pass can re-verify checksum groups.
// Each pass is a pure function over explicit candidate-ID collections.
type Pipeline struct {
	index  Index
	logger Logger
}

// NewPipeline creates a detection pipeline over the given index.
func NewPipeline(index Index, logger Logger) *Pipeline {
	return &Pipeline{index: index, logger: logger}
}

// DetectDuplicates runs all passes and returns duplicate groups ordered by
// wasted size, largest first. Group IDs are 1-based and assigned in checksum
// iteration order; they are not stable across runs.
func (p *Pipeline) DetectDuplicates(opts DetectOptions) ([]*model.DuplicateGroup, error) {
	p.logger.Info("starting duplicate detection", "min_size", opts.MinSize, "byte_compare", opts.ByteCompare)

	sizeGroups, err := p.SizePass(opts.MinSize)
	if err != nil {
		return nil, err
	}
	if len(sizeGroups) == 0 {
		p.logger.Info("no duplicate candidates found")
		return nil, nil
	}

	md5Groups, err := p.ChecksumPass(sizeGroups)
	if err != nil {
		return nil, err
	}
	if len(md5Groups) == 0 {
		p.logger.Info("no true duplicates found")
		return nil, nil
	}

	if opts.ByteCompare {
		md5Groups = p.BytePass(md5Groups)
	}

	groups, err := p.assemble(md5Groups)
	if err != nil {
		return nil, err
	}

	model.SortGroupsByWastedSize(groups)
	p.logger.Info("detection complete", "groups", len(groups))
	return groups, nil
}

// SizePass partitions all non-trashed, checksum-bearing records by exact
// byte size. Only sizes shared by two or more records survive.
func (p *Pipeline) SizePass(minSize int64) (map[int64][]string, error) {
	candidates, err := p.index.GroupBySize(minSize)
	if err != nil {
		return nil, fmt.Errorf("size pass: %w", err)
	}

	total := 0
	for _, ids := range candidates {
		total += len(ids)
	}
	p.logger.Info("size pass complete", "files", total, "size_groups", len(candidates))
	return candidates, nil
}

// ChecksumPass groups the size-pass survivors by exact checksum equality.
// Only checksum groups with two or more members survive; this pass is what
// actually proves duplication.
func (p *Pipeline) ChecksumPass(sizeGroups map[int64][]string) (map[string][]string, error) {
	var candidateIDs []string
	for _, ids := range sizeGroups {
		candidateIDs = append(candidateIDs, ids...)
	}
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	files, err := p.index.GetByIDs(candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("checksum pass: fetching candidates: %w", err)
	}

	var md5s []string
	for _, f := range files {
		if f.MD5 != "" {
			md5s = append(md5s, f.MD5)
		}
	}
	if len(md5s) == 0 {
		return nil, nil
	}

	md5Groups, err := p.index.GroupByChecksum(md5s)
	if err != nil {
		return nil, fmt.Errorf("checksum pass: %w", err)
	}

	total := 0
	for _, ids := range md5Groups {
		total += len(ids)
	}
	p.logger.Info("checksum pass complete", "files", total, "groups", len(md5Groups))
	return md5Groups, nil
}

// BytePass is the reserved byte-for-byte verification extension point.
// It is currently the identity transform: checksum collisions on a
// cryptographic hash are treated as certainty of content equality.
func (p *Pipeline) BytePass(md5Groups map[string][]string) map[string][]string {
	p.logger.Info("byte pass requested; checksum equality already proves content equality")
	return md5Groups
}

// assemble turns surviving checksum groups into DuplicateGroups. Groups that
// resolve to fewer than two records (stale index entries) are dropped.
func (p *Pipeline) assemble(md5Groups map[string][]string) ([]*model.DuplicateGroup, error) {
	var groups []*model.DuplicateGroup
	nextID := 1

	for md5, ids := range md5Groups {
		files, err := p.index.GetByIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("resolving group members: %w", err)
		}
		if len(files) < 2 {
			continue
		}

		groups = append(groups, &model.DuplicateGroup{
			GroupID: nextID,
			Size:    files[0].Size,
			MD5:     md5,
			Files:   files,
		})
		nextID++
	}

	return groups, nil
}
