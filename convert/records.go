package convert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"icssc/composes"
	"icssc/icss"
)

// scopedEntry is one element of --scoped file. Entries without file apply to
// every stylesheet, file is matched against path relative to the source.
type scopedEntry struct {
	File  string `yaml:"file,omitempty"`
	Type  string `yaml:"type,omitempty"`
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// loadScoped reads scoped names produced by other tooling. Entries of any
// type except "scoped" are skipped, so records sidecar lists may be fed back.
func loadScoped(path string) (map[string][]composes.Message, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read scoped names: %w", err)
	}

	var entries []scopedEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, 0, fmt.Errorf("unable to decode scoped names (%s): %w", path, err)
	}

	out := make(map[string][]composes.Message)
	skipped := 0
	for i, e := range entries {
		if e.Type != "" && e.Type != composes.TypeScoped {
			skipped++
			continue
		}
		if e.Name == "" || e.Value == "" {
			return nil, 0, fmt.Errorf("scoped names (%s): entry %d must have name and value", path, i+1)
		}
		file := e.File
		if file != "" {
			file = filepath.ToSlash(filepath.Clean(file))
		}
		out[file] = append(out[file], composes.Message{
			Plugin: "external",
			Type:   composes.TypeScoped,
			Name:   e.Name,
			Value:  e.Value,
		})
	}
	return out, skipped, nil
}

// recordsFile is the sidecar written next to every produced stylesheet.
type recordsFile struct {
	Source   string             `yaml:"source"`
	Output   string             `yaml:"output"`
	RunID    string             `yaml:"run_id"`
	Encoding string             `yaml:"encoding"`
	Records  []composes.Message `yaml:"records"`
	Exports  []icss.Pair        `yaml:"exports,omitempty"`
	Warnings []string           `yaml:"warnings,omitempty"`
}

func newRecordsFile(src, out, runID, enc string, records []composes.Message, exports *icss.Exports, warnings []string) *recordsFile {
	rf := &recordsFile{
		Source:   src,
		Output:   out,
		RunID:    runID,
		Encoding: enc,
		Records:  records,
		Warnings: warnings,
	}
	if rf.Records == nil {
		rf.Records = []composes.Message{}
	}
	if exports != nil {
		for name, value := range exports.All() {
			rf.Exports = append(rf.Exports, icss.Pair{Name: name, Value: value})
		}
	}
	return rf
}

func (rf *recordsFile) write(path string, overwrite bool) error {
	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("unable to marshal records: %w", err)
	}
	return writeOutput(path, data, overwrite)
}
