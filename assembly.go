package cfntheory

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/theory-cloud/cfntheory/pkg/template"
)

// ManifestFile is the assembly manifest written next to the templates.
const (
	ManifestFile    = "manifest.json"
	manifestVersion = "cfntheory/1"
)

// Assembly is the result of one App.Synth call.
type Assembly struct {
	RunID     string
	Directory string
	Format    template.Format
	CreatedAt time.Time
	Stacks    []*StackArtifact
}

// StackArtifact is one synthesized stack.
type StackArtifact struct {
	StackName    string
	TemplateFile string
	Template     *template.Template
	// Body is the encoded template in the assembly format.
	Body []byte
}

// Stack returns the artifact for a stack name.
func (a *Assembly) Stack(name string) (*StackArtifact, bool) {
	for _, s := range a.Stacks {
		if s.StackName == name {
			return s, true
		}
	}
	return nil, false
}

type manifest struct {
	Version   string             `json:"version"`
	RunID     string             `json:"runId"`
	CreatedAt time.Time          `json:"createdAt"`
	Format    template.Format    `json:"format"`
	Stacks    []manifestArtifact `json:"stacks"`
}

type manifestArtifact struct {
	StackName    string `json:"stackName"`
	TemplateFile string `json:"templateFile"`
	Resources    int    `json:"resources"`
}

// Write stores every template and the manifest under dir.
func (a *Assembly) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newError(ErrorCodeSynthesisFailed, "create "+dir, err)
	}

	m := manifest{
		Version:   manifestVersion,
		RunID:     a.RunID,
		CreatedAt: a.CreatedAt,
		Format:    a.Format,
		Stacks:    make([]manifestArtifact, 0, len(a.Stacks)),
	}
	for _, s := range a.Stacks {
		if err := os.WriteFile(filepath.Join(dir, s.TemplateFile), s.Body, 0o644); err != nil { //nolint:gosec // templates are not secrets
			return newError(ErrorCodeSynthesisFailed, "write "+s.TemplateFile, err)
		}
		m.Stacks = append(m.Stacks, manifestArtifact{
			StackName:    s.StackName,
			TemplateFile: s.TemplateFile,
			Resources:    s.Template.Resources.Len(),
		})
	}

	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return newError(ErrorCodeSynthesisFailed, "encode manifest", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(body, '\n'), 0o644); err != nil { //nolint:gosec // manifest is not a secret
		return newError(ErrorCodeSynthesisFailed, "write "+ManifestFile, err)
	}
	a.Directory = dir
	return nil
}
