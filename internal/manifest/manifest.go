// Package manifest records what a corpus run produced. The manifest is a
// JSON document written next to the shards.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.json"

// Shard is one output file.
type Shard struct {
	Name  string
	Lines int
}

// Manifest summarizes a run.
type Manifest struct {
	Created     time.Time
	Input       string
	Files       int
	FailedFiles int
	Sentences   int
	Shards      []Shard
	Rejected    map[string]int
	Settings    map[string]any
}

// Write stores m as dir/manifest.json.
func Write(dir string, m Manifest) error {
	s, err := structpb.NewStruct(m.toMap())
	if err != nil {
		return fmt.Errorf("building manifest: %w", err)
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Read loads the manifest from dir.
func Read(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest: %w", err)
	}
	return fromStruct(&s)
}

func (m Manifest) toMap() map[string]any {
	shards := make([]any, len(m.Shards))
	for i, sh := range m.Shards {
		shards[i] = map[string]any{"name": sh.Name, "lines": sh.Lines}
	}
	rejected := make(map[string]any, len(m.Rejected))
	for k, v := range m.Rejected {
		rejected[k] = v
	}
	settings := m.Settings
	if settings == nil {
		settings = map[string]any{}
	}

	return map[string]any{
		"created":      m.Created.UTC().Format(time.RFC3339),
		"input":        m.Input,
		"files":        m.Files,
		"failed_files": m.FailedFiles,
		"sentences":    m.Sentences,
		"shards":       shards,
		"rejected":     rejected,
		"settings":     settings,
	}
}

func fromStruct(s *structpb.Struct) (Manifest, error) {
	f := s.GetFields()
	m := Manifest{
		Input:       f["input"].GetStringValue(),
		Files:       int(f["files"].GetNumberValue()),
		FailedFiles: int(f["failed_files"].GetNumberValue()),
		Sentences:   int(f["sentences"].GetNumberValue()),
		Rejected:    map[string]int{},
		Settings:    f["settings"].GetStructValue().AsMap(),
	}

	if c := f["created"].GetStringValue(); c != "" {
		t, err := time.Parse(time.RFC3339, c)
		if err != nil {
			return Manifest{}, fmt.Errorf("decoding manifest: created: %w", err)
		}
		m.Created = t
	}

	for _, v := range f["shards"].GetListValue().GetValues() {
		sf := v.GetStructValue().GetFields()
		m.Shards = append(m.Shards, Shard{
			Name:  sf["name"].GetStringValue(),
			Lines: int(sf["lines"].GetNumberValue()),
		})
	}
	for k, v := range f["rejected"].GetStructValue().GetFields() {
		m.Rejected[k] = int(v.GetNumberValue())
	}
	return m, nil
}
