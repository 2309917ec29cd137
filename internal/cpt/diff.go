package cpt

import (
	"fmt"
	"os"
	"path/filepath"
)

// ComputeDiff returns the top-level entry names that apply would copy from
// source into destination: entries present only in source, plus entries
// present in both whose contents differ per the comparer. Reserved marker
// names never appear in the result. One level only; a subdirectory present
// in both sides is diffed as a unit (it appears if the comparer reports a
// difference for it, which for directories it never does — matching entries
// recurse no further).
//
// A missing destination diffs as "copy everything": every top-level entry
// of source.
func (s *Service) ComputeDiff(source, destination string) ([]string, error) {
	srcEntries, err := os.ReadDir(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DirectoryMissingError{Path: source}
		}
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	dstInfo, err := os.Stat(destination)
	dstExists := err == nil && dstInfo.IsDir()

	var diff []string
	for _, entry := range srcEntries {
		name := entry.Name()
		if IsReservedName(name) {
			continue
		}
		if !dstExists {
			diff = append(diff, name)
			continue
		}

		dstPath := filepath.Join(destination, name)
		dstEntry, err := os.Stat(dstPath)
		if os.IsNotExist(err) {
			diff = append(diff, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", dstPath, err)
		}

		// Both sides have the entry. Directories present on both sides are
		// considered matched at this granularity; files are compared.
		if entry.IsDir() || dstEntry.IsDir() {
			continue
		}
		equal, err := s.comparer.Equal(filepath.Join(source, name), dstPath)
		if err != nil {
			return nil, fmt.Errorf("comparing %s: %w", name, err)
		}
		if !equal {
			diff = append(diff, name)
		}
	}
	return diff, nil
}
