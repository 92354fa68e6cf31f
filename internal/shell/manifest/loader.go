// Package manifest reads manifest documents from disk and keeps the current
// index available to the rest of the service.
package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	core "github.com/artpar/kitchen/internal/core/manifest"
)

// Conventional document file names inside a manifest directory.
const (
	ContractsFile   = "contracts.yml"
	CombosFile      = "combos.yml"
	BentosFile      = "bento-box.yml"
	PlattersFile    = "platters.yml"
	EnvironmentFile = "environment.yml"
	NetworkFile     = "network.yml"
)

// Paths locates the manifest documents. Contracts is required; an empty
// path for any other document means it is not used.
type Paths struct {
	Contracts   string `mapstructure:"contracts"`
	Combos      string `mapstructure:"combos"`
	Bentos      string `mapstructure:"bentos"`
	Platters    string `mapstructure:"platters"`
	Environment string `mapstructure:"environment"`
	Network     string `mapstructure:"network"`
}

// FromDir returns the conventional paths inside dir. Optional documents that
// are not present in dir are left empty.
func FromDir(dir string) Paths {
	optional := func(name string) string {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return ""
		}
		return path
	}
	return Paths{
		Contracts:   filepath.Join(dir, ContractsFile),
		Combos:      optional(CombosFile),
		Bentos:      optional(BentosFile),
		Platters:    optional(PlattersFile),
		Environment: optional(EnvironmentFile),
		Network:     optional(NetworkFile),
	}
}

// Files returns every configured path.
func (p Paths) Files() []string {
	var files []string
	for _, path := range []string{p.Contracts, p.Combos, p.Bentos, p.Platters, p.Environment, p.Network} {
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

// Load reads and parses the documents and builds an index.
//
// A configured path that does not exist is a LoadError wrapping
// ErrMissingDocument. Parse and validation failures come back from the core
// package unchanged apart from the file path.
func Load(paths Paths) (*core.Index, error) {
	if paths.Contracts == "" {
		return nil, core.NewLoadError("contracts", "no contracts path configured", core.ErrMissingDocument)
	}

	var docs core.Documents

	data, err := readDocument("contracts", paths.Contracts)
	if err != nil {
		return nil, err
	}
	if docs.Contracts, err = core.ParseContracts(data); err != nil {
		return nil, withPath(err, paths.Contracts)
	}

	bundles := []struct {
		document string
		path     string
		parse    func([]byte) ([]core.Bundle, error)
		dest     *[]core.Bundle
	}{
		{"combos", paths.Combos, core.ParseCombos, &docs.Combos},
		{"bento", paths.Bentos, core.ParseBentos, &docs.Bentos},
		{"platters", paths.Platters, core.ParsePlatters, &docs.Platters},
	}
	for _, b := range bundles {
		if b.path == "" {
			continue
		}
		data, err := readDocument(b.document, b.path)
		if err != nil {
			return nil, err
		}
		if *b.dest, err = b.parse(data); err != nil {
			return nil, withPath(err, b.path)
		}
	}

	if paths.Environment != "" {
		data, err := readDocument("environment", paths.Environment)
		if err != nil {
			return nil, err
		}
		if docs.Environment, err = core.ParseEnvironment(data); err != nil {
			return nil, withPath(err, paths.Environment)
		}
	}

	if paths.Network != "" {
		data, err := readDocument("network", paths.Network)
		if err != nil {
			return nil, err
		}
		if docs.Network, err = core.ParseNetworkProfile(data); err != nil {
			return nil, withPath(err, paths.Network)
		}
	}

	return core.Build(docs)
}

func readDocument(document, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	loadErr := core.NewLoadError(document, err.Error(), err)
	if errors.Is(err, fs.ErrNotExist) {
		loadErr.Message = "file does not exist"
		loadErr.Err = core.ErrMissingDocument
	}
	loadErr.Path = path
	return nil, loadErr
}

func withPath(err error, path string) error {
	var loadErr *core.LoadError
	if errors.As(err, &loadErr) && loadErr.Path == "" {
		loadErr.Path = path
	}
	return err
}
