// Package artifacts persists execution artifacts to the local data
// directory. Terminals cannot render chart images inline, so charts are
// decoded to PNG files the user can open; other artifact types are kept in
// their wire form alongside them.
package artifacts

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/datalenz/internal/types"
)

// Saved describes one artifact written to disk.
type Saved struct {
	Type types.ArtifactType
	Path string
}

// Sink writes artifacts under <root>/sessions/<sessionID>/artifacts/.
type Sink struct {
	root string
}

// NewSink creates a Sink rooted at the given data directory.
func NewSink(root string) *Sink {
	return &Sink{root: root}
}

func (s *Sink) artifactsDir(sessionID types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(sessionID), "artifacts")
}

// SaveAll writes every artifact of one execution, naming files after the
// record so repeated queries never collide. Chart content arrives as
// base64 PNG (optionally with a data-URI prefix); anything that does not
// decode is kept verbatim as JSON. Error artifacts are not persisted.
func (s *Sink) SaveAll(sessionID types.SessionID, recordID types.RecordID, list []types.Artifact) ([]Saved, error) {
	dir := s.artifactsDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	var saved []Saved
	for i, artifact := range list {
		if artifact.Type == types.ArtifactError {
			continue
		}

		base := fmt.Sprintf("%s-%d", recordID, i)
		var path string
		var data []byte

		switch artifact.Type {
		case types.ArtifactChart:
			if png, ok := decodePNG(artifact.Content); ok {
				path = filepath.Join(dir, base+".png")
				data = png
				break
			}
			// Not an image payload (e.g. a plotly spec); keep the JSON.
			path = filepath.Join(dir, base+".json")
			data = artifact.Content
		case types.ArtifactCode:
			path = filepath.Join(dir, base+".py")
			data = rawText(artifact.Content)
		default:
			path = filepath.Join(dir, base+".json")
			data = artifact.Content
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return saved, fmt.Errorf("write artifact %s: %w", base, err)
		}
		saved = append(saved, Saved{Type: artifact.Type, Path: path})
	}
	return saved, nil
}

// List returns the paths of all artifacts previously saved for a session.
func (s *Sink) List(sessionID types.SessionID) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.artifactsDir(sessionID), "*"))
	if err != nil {
		return nil, fmt.Errorf("glob artifacts: %w", err)
	}
	return matches, nil
}

// decodePNG extracts PNG bytes from a JSON string value holding base64
// content, with or without a "data:image/png;base64," prefix.
func decodePNG(content json.RawMessage) ([]byte, bool) {
	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return nil, false
	}
	if idx := strings.Index(text, "base64,"); idx >= 0 {
		text = text[idx+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// rawText unwraps a JSON string value, falling back to the raw bytes for
// non-string content.
func rawText(content json.RawMessage) []byte {
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return []byte(text)
	}
	return content
}
