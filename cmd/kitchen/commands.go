package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/kitchen/internal/core/kitchen"
	core "github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/core/validation"
	"github.com/artpar/kitchen/internal/shell/manifest"
)

// =============================================================================
// Manifest Flags
// =============================================================================

// manifestFlags override the configured manifest location for one command.
type manifestFlags struct {
	dir   string
	paths manifest.Paths
}

func (f *manifestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.dir, "manifests", "m", "", "Directory holding the manifest documents")
	flags.StringVar(&f.paths.Contracts, "contracts", "", "Path to contracts.yml")
	flags.StringVar(&f.paths.Combos, "combos", "", "Path to combos.yml")
	flags.StringVar(&f.paths.Bentos, "bento", "", "Path to bento-box.yml")
	flags.StringVar(&f.paths.Platters, "platters", "", "Path to platters.yml")
	flags.StringVar(&f.paths.Environment, "environment", "", "Environment template to apply")
	flags.StringVar(&f.paths.Network, "network", "", "Network profile to apply")
}

// load applies the flags over the configured manifest location and loads
// the index.
func (f *manifestFlags) load(cfg ManifestConfig) (*core.Index, error) {
	if f.dir != "" {
		cfg.Dir = f.dir
	}
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	override(&cfg.Paths.Contracts, f.paths.Contracts)
	override(&cfg.Paths.Combos, f.paths.Combos)
	override(&cfg.Paths.Bentos, f.paths.Bentos)
	override(&cfg.Paths.Platters, f.paths.Platters)
	override(&cfg.Paths.Environment, f.paths.Environment)
	override(&cfg.Paths.Network, f.paths.Network)

	idx, err := manifest.Load(cfg.ResolvedPaths())
	if err != nil {
		return nil, &ServerError{Op: "LoadManifests", Err: err, ExitCode: ExitManifestError}
	}
	return idx, nil
}

// =============================================================================
// generate
// =============================================================================

func newGenerateCmd(opts *cliOptions) *cobra.Command {
	var (
		manifests manifestFlags
		selection []string
		tier      string
		optional  bool
		suggested bool
		output    string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "generate [ID...]",
		Short: "Write a Docker Compose document for a selection",
		Long: `Resolve the selected services, bundles and capabilities and write the
resulting Docker Compose document. Validation findings go to stderr.`,
		Example: `  kitchen generate platter.starter --tier segmented -o docker-compose.yml
  kitchen generate --select hosomaki.redis,futomaki.api --suggested`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg, opts.stderr).With("component", "cli")

			idx, err := manifests.load(cfg.Manifest)
			if err != nil {
				return err
			}

			tierName := cfg.Generate.DefaultTier
			if cmd.Flags().Changed("tier") {
				tierName = tier
			}
			parsedTier, err := network.ParseTier(tierName)
			if err != nil {
				return &ServerError{Op: "generate", Err: err, ExitCode: ExitGenerateError}
			}

			includeOptional := cfg.Generate.IncludeOptional
			if cmd.Flags().Changed("optional") {
				includeOptional = optional
			}

			res, err := kitchen.Generate(idx, kitchen.Request{
				Selection:        append(append([]string{}, selection...), args...),
				Tier:             parsedTier,
				IncludeOptional:  includeOptional,
				IncludeSuggested: suggested,
			})
			if err != nil {
				return &ServerError{Op: "generate", Err: err, ExitCode: ExitGenerateError}
			}

			if err := writeOutput(opts.stdout, output, res.YAML); err != nil {
				return &ServerError{Op: "generate", Err: err, ExitCode: ExitGenerateError}
			}
			logger.Debug("compose document generated",
				"services", len(res.Services),
				"tier", parsedTier,
				"output", output,
			)

			printFindings(opts.stderr, res.Validation)
			if strict && !res.Validation.Valid {
				return &ServerError{
					Op:       "generate",
					Err:      fmt.Errorf("generated document has %d validation error(s)", len(res.Validation.Errors)),
					ExitCode: ExitInvalidCompose,
				}
			}
			return nil
		},
	}

	manifests.register(cmd)
	flags := cmd.Flags()
	flags.StringSliceVar(&selection, "select", nil, "Service, bundle or capability IDs to include")
	flags.StringVarP(&tier, "tier", "t", "", "Network tier: open, segmented or multiTier")
	flags.BoolVar(&optional, "optional", true, "Include optional members of bundles")
	flags.BoolVar(&suggested, "suggested", false, "Follow service suggestions")
	flags.StringVarP(&output, "output", "o", "", "Write the document to a file instead of stdout")
	flags.BoolVar(&strict, "strict", false, "Fail when the generated document does not validate")
	return cmd
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printFindings(w io.Writer, result validation.Result) {
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
}

// =============================================================================
// validate
// =============================================================================

func newValidateCmd(opts *cliOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a Docker Compose document",
		Long:  `Check a Docker Compose document for undefined networks, conflicting host ports and anything Docker Compose would reject. Use "-" to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(opts.stdin)
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return &ServerError{Op: "validate", Err: err, ExitCode: ExitConfigError}
			}

			result := validation.ValidateYAML(raw)
			if asJSON {
				enc := json.NewEncoder(opts.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printFindings(opts.stderr, result)
				if result.Valid {
					fmt.Fprintln(opts.stdout, "valid")
				}
			}

			if !result.Valid {
				return &ServerError{
					Op:       "validate",
					Err:      fmt.Errorf("%d validation error(s)", len(result.Errors)),
					ExitCode: ExitInvalidCompose,
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// =============================================================================
// components
// =============================================================================

func newComponentsCmd(opts *cliOptions) *cobra.Command {
	var (
		manifests manifestFlags
		kind      string
	)

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the services, bundles and capabilities in the manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var only core.Kind
			if kind != "" {
				k, ok := core.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown component kind: %s", kind)
				}
				only = k
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			idx, err := manifests.load(cfg.Manifest)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tID\tNAME")
			for _, row := range componentRows(idx, only) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row[0], row[1], row[2])
			}
			return tw.Flush()
		},
	}

	manifests.register(cmd)
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only list one kind: service, combo, bento, platter or capability")
	return cmd
}

// componentRows lists kind, id and display name for every component,
// services first, then bundles, then capabilities.
func componentRows(idx *core.Index, only core.Kind) [][3]string {
	include := func(kind core.Kind) bool { return only == core.KindUnknown || only == kind }

	var rows [][3]string
	if include(core.KindService) {
		for _, id := range idx.ServiceIDs() {
			svc, _ := idx.Service(id)
			rows = append(rows, [3]string{string(core.KindService), id, svc.Name})
		}
	}
	for _, kind := range []core.Kind{core.KindCombo, core.KindBento, core.KindPlatter} {
		if !include(kind) {
			continue
		}
		for _, b := range idx.Bundles(kind) {
			rows = append(rows, [3]string{string(kind), b.ID, b.Name})
		}
	}
	if include(core.KindCapability) {
		for _, id := range idx.CapabilityIDs() {
			c, _ := idx.Capability(id)
			rows = append(rows, [3]string{string(core.KindCapability), id, c.Description})
		}
	}
	return rows
}
