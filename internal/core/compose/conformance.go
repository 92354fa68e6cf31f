package compose

import (
	"context"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// projectName is the name compose-go loads documents under. It never reaches
// the output.
const projectName = "kitchen"

// CheckConformance loads a compose document with compose-go, the loader
// Docker Compose itself uses, and reports whether it would be accepted.
// Everything happens in memory: variables are interpolated from their
// defaults, and extends and relative paths are left alone.
func CheckConformance(yamlContent []byte) error {
	_, err := loadProject(yamlContent)
	return err
}

// loadProject loads a compose document using compose-go.
func loadProject(yamlContent []byte) (*types.Project, error) {
	if strings.TrimSpace(string(yamlContent)) == "" {
		return nil, NewConformanceError(ErrEmptyInput)
	}

	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal(yamlContent, &dict); err != nil || dict == nil {
		return nil, &ConformanceError{Message: "invalid YAML syntax", Err: ErrInvalidYAML}
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: yamlContent,
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName, false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewConformanceError(err)
	}
	return project, nil
}
