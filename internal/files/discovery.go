package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// measurementFilePattern matches per-location workbook names such as
// RM_54.0.xlsx and captures the river-mile identifier.
var measurementFilePattern = regexp.MustCompile(`^RM_([0-9]+(?:\.[0-9]+)?)\.xlsx?$`)

// FileInfo describes a discovered input file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// LocationFile pairs a discovered workbook with the location identifier
// parsed from its name.
type LocationFile struct {
	FileInfo
	LocationID string
}

// Discovery finds input workbooks under a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a file discovery instance rooted at basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExcelFiles returns all Excel workbooks in dir, skipping Office
// lock files (~$...), sorted by name for deterministic processing order.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })

	return found, nil
}

// FindLocationFiles returns the per-location measurement workbooks in
// dir, keyed by the river-mile identifier embedded in the file name.
func (d *Discovery) FindLocationFiles(dir string) (map[string]LocationFile, error) {
	excelFiles, err := d.FindExcelFiles(dir)
	if err != nil {
		return nil, err
	}

	locations := make(map[string]LocationFile, len(excelFiles))
	for _, file := range excelFiles {
		match := measurementFilePattern.FindStringSubmatch(file.Name)
		if match == nil {
			continue
		}
		locations[match[1]] = LocationFile{FileInfo: file, LocationID: match[1]}
	}

	return locations, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
