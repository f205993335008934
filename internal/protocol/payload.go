package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

// FormatInfo describes how a dataset's format was detected and which
// reader engines can currently open it.
type FormatInfo struct {
	Extension        string   `json:"extension"`
	DisplayName      string   `json:"display_name"`
	AvailableEngines []string `json:"available_engines"`
	MissingPackages  []string `json:"missing_packages"`
}

// Supported reports whether at least one engine can open the format.
func (f FormatInfo) Supported() bool {
	return len(f.AvailableEngines) > 0
}

// VariableInfo describes one data variable within a dataset group.
type VariableInfo struct {
	Name       string         `json:"name"`
	Dtype      string         `json:"dtype"`
	Shape      []int64        `json:"shape"`
	Dimensions []string       `json:"dimensions"`
	SizeBytes  int64          `json:"size_bytes"`
	Attributes map[string]any `json:"attributes"`
}

// CoordinateInfo carries the same fields as a variable; coordinates are
// variables that label dimensions.
type CoordinateInfo = VariableInfo

// FileInfo is the payload of the info verb: detected format, the engine
// that opened the file, and the dataset structure keyed by group path
// ("/" for the root, "/child/..." for nested DataTree groups).
type FileInfo struct {
	FormatInfo  FormatInfo                  `json:"format_info"`
	UsedEngine  string                      `json:"used_engine"`
	FileSize    int64                       `json:"file_size"`
	TextRepr    string                      `json:"text_repr"`
	HTMLRepr    string                      `json:"html_repr"`
	Dimensions  map[string]map[string]int64 `json:"dimensions"`
	Variables   map[string][]VariableInfo   `json:"variables"`
	Coordinates map[string][]CoordinateInfo `json:"coordinates"`
	Attributes  map[string]map[string]any   `json:"attributes"`
}

// Groups returns every group path present in the dataset, sorted, with
// the root group first.
func (f *FileInfo) Groups() []string {
	seen := map[string]bool{}
	for g := range f.Dimensions {
		seen[g] = true
	}
	for g := range f.Variables {
		seen[g] = true
	}
	for g := range f.Coordinates {
		seen[g] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// VariableCount returns the number of data variables across all groups.
func (f *FileInfo) VariableCount() int {
	n := 0
	for _, vars := range f.Variables {
		n += len(vars)
	}
	return n
}

// PlotResult is the payload of the plot verb. PlotData is a base64
// encoded PNG.
type PlotResult struct {
	PlotData   string     `json:"plot_data"`
	FormatInfo FormatInfo `json:"format_info"`
}

// PNG decodes the base64 plot data.
func (p *PlotResult) PNG() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.PlotData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plot data: %w", err)
	}
	return data, nil
}

// SliceResult is the payload of the slice verb: the selected values as a
// nested JSON array plus the resulting shape.
type SliceResult struct {
	Variable string          `json:"variable"`
	Data     json.RawMessage `json:"data"`
	Shape    []int64         `json:"shape"`
	Dtype    string          `json:"dtype"`
}

// TextResult is the payload of the text verb.
type TextResult struct {
	Text string `json:"text"`
}

// HTMLResult is the payload of the html verb.
type HTMLResult struct {
	HTML string `json:"html"`
}

// VersionsResult is the payload of the versions verb: xarray's
// show_versions dump.
type VersionsResult struct {
	Versions string `json:"versions"`
}

// ErrorDetail is the flattened diagnostic shape of a ScriptError.
type ErrorDetail struct {
	Message         string
	Type            string
	Suggestion      string
	FormatInfo      *FormatInfo
	MissingPackages []string
}
