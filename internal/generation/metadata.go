package generation

import (
	"encoding/json"
	"fmt"

	"aicodegen-backend/internal/models"
)

// screenMetadata is stored in Screen.Metadata. Files is itself a JSON document
// encoded as a string, which keeps rows written by earlier versions readable.
type screenMetadata struct {
	Component  string `json:"component"`
	Code       string `json:"code"`
	Files      string `json:"files"`
	Responsive bool   `json:"responsive"`
}

func EncodeScreenMetadata(artifact Artifact, responsive bool) (string, error) {
	files, err := json.Marshal(artifact.Files)
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact files: %w", err)
	}
	raw, err := json.Marshal(screenMetadata{
		Component:  artifact.Name,
		Code:       artifact.SourceCode,
		Files:      string(files),
		Responsive: responsive,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode screen metadata: %w", err)
	}
	return string(raw), nil
}

// DecodeScreenMetadata reverses EncodeScreenMetadata.
func DecodeScreenMetadata(raw string) (Artifact, bool, error) {
	var meta screenMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Artifact{}, false, fmt.Errorf("failed to decode screen metadata: %w", err)
	}
	var files []models.ArtifactFile
	if meta.Files != "" {
		if err := json.Unmarshal([]byte(meta.Files), &files); err != nil {
			return Artifact{}, false, fmt.Errorf("failed to decode artifact files: %w", err)
		}
	}
	return Artifact{Name: meta.Component, SourceCode: meta.Code, Files: files}, meta.Responsive, nil
}
