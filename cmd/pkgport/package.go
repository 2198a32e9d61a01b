// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invowk/pkgport/internal/batch"
	"github.com/invowk/pkgport/internal/studio"
	"github.com/invowk/pkgport/pkg/content"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type listOptions struct {
	withDependencies bool
	json             bool
}

// newPackageCommand creates the `pkgport package` command tree.
func newPackageCommand(app *App) *cobra.Command {
	pkgCmd := &cobra.Command{
		Use:     "package",
		Aliases: []string{"packages", "pkg"},
		Short:   "Export, import and list content packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pkgCmd.AddCommand(newExportCommand(app))
	pkgCmd.AddCommand(newImportCommand(app))
	pkgCmd.AddCommand(newListCommand(app))

	return pkgCmd
}

func newExportCommand(app *App) *cobra.Command {
	var req batch.ExportRequest

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export packages to a zip file, directory or git branch",
		Long: `Export packages to a zip file, directory or git branch.

Select packages either by key (latest active version, --packageKeys) or by
exact version (--keysByVersion key_version). The archive is written to
export_<timestamp>.zip in the output directory unless --unzip or
--gitBranch is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, app, req)
		},
	}

	exportCmd.Flags().StringSliceVar(&req.PackageKeys, "packageKeys", nil, "keys of the packages to export")
	exportCmd.Flags().StringSliceVar(&req.KeysByVersion, "keysByVersion", nil, "key_version pairs of the package versions to export")
	exportCmd.Flags().BoolVar(&req.WithDependencies, "withDependencies", false, "include dependencies of the selected packages")
	exportCmd.Flags().StringVar(&req.GitBranch, "gitBranch", "", "push the extracted archive to this branch of the configured repository")
	exportCmd.Flags().BoolVar(&req.Unzip, "unzip", false, "write the extracted archive tree instead of a zip file")
	exportCmd.Flags().StringVarP(&req.OutputDir, "output", "o", "", "output directory (default is batch.output_dir)")

	return exportCmd
}

func runExport(cmd *cobra.Command, app *App, req batch.ExportRequest) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(cfg.Git.Configured()); err != nil {
		return err
	}
	if req.OutputDir == "" {
		req.OutputDir = cfg.Batch.OutputDir
	}

	exporter := batch.NewExporter(app.Remote(cfg), app.batchOptions(cfg)...)
	result, err := exporter.Export(ctx, req)
	if err != nil {
		return err
	}

	target := result.Path
	if result.Branch != "" {
		target = fmt.Sprintf("branch %s (%s)", result.Branch, shortCommit(result.Commit))
	}
	fmt.Fprintf(app.stdout, "%s Exported %d packages (%d versions) to %s\n",
		SuccessStyle.Render("✓"), result.PackageCount, result.ArchiveCount, KeyStyle.Render(target))
	return nil
}

func newImportCommand(app *App) *cobra.Command {
	var req batch.ImportRequest

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import packages from a zip file, directory or git branch",
		Long: `Import packages from a zip file, directory or git branch.

Studio packages are placed in their recorded space, which is looked up by
id or by name and created when missing. A JSON report of the imported
versions is written to import_report_<timestamp>.json in the output
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, req)
		},
	}

	importCmd.Flags().StringVarP(&req.File, "file", "f", "", "exported zip file to import")
	importCmd.Flags().StringVarP(&req.Directory, "directory", "d", "", "extracted archive tree to import")
	importCmd.Flags().StringVar(&req.GitBranch, "gitBranch", "", "import the tree stored on this branch of the configured repository")
	importCmd.Flags().BoolVar(&req.Overwrite, "overwrite", false, "overwrite existing package versions")
	importCmd.Flags().StringVarP(&req.OutputDir, "output", "o", "", "report directory (default is batch.output_dir)")
	importCmd.Flags().StringSliceVar(&req.Ignore, "ignore", nil, "glob patterns skipped when packing a tree")

	return importCmd
}

func runImport(cmd *cobra.Command, app *App, req batch.ImportRequest) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(cfg.Git.Configured()); err != nil {
		return err
	}
	if req.OutputDir == "" {
		req.OutputDir = cfg.Batch.OutputDir
	}

	importer := batch.NewImporter(app.Remote(cfg), app.batchOptions(cfg)...)
	result, err := importer.Import(ctx, req)
	if err != nil {
		return err
	}

	for _, r := range result.Reports {
		versions := make([]string, 0, len(r.ImportedVersions))
		for _, v := range r.ImportedVersions {
			versions = append(versions, v.OldVersion+" → "+v.NewVersion)
		}
		fmt.Fprintf(app.stdout, "  %s %s\n", KeyStyle.Render(r.PackageKey), SubtitleStyle.Render(strings.Join(versions, ", ")))
	}
	fmt.Fprintf(app.stdout, "%s Imported %d packages, report written to %s\n",
		SuccessStyle.Render("✓"), len(result.Reports), KeyStyle.Render(result.ReportPath))
	return nil
}

func newListCommand(app *App) *cobra.Command {
	var opts listOptions

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the packages of the platform team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), app, opts)
		},
	}

	listCmd.Flags().BoolVar(&opts.withDependencies, "withDependencies", false, "resolve the data models bound to each package")
	listCmd.Flags().BoolVar(&opts.json, "json", false, "print the listing as JSON")

	return listCmd
}

func runList(ctx context.Context, app *App, opts listOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	remote := app.Remote(cfg)
	packages, err := remote.ListPackages(ctx)
	if err != nil {
		return batch.RemoteError(err, "list packages", "")
	}
	resolver := studio.NewResolver(remote, studio.WithConcurrency(cfg.Batch.Concurrency))
	packages, err = resolver.Enrich(ctx, packages, opts.withDependencies)
	if err != nil {
		return batch.RemoteError(err, "enrich packages", "")
	}

	if opts.json {
		if packages == nil {
			packages = []content.PackageSummary{}
		}
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(packages)
	}

	if len(packages) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no packages)"))
		return nil
	}
	fmt.Fprintln(app.stdout, renderPackageTable(packages, opts.withDependencies))
	return nil
}

func renderPackageTable(packages []content.PackageSummary, withDependencies bool) string {
	headers := []string{"KEY", "NAME", "FLAVOR", "VERSION", "SPACE"}
	if withDependencies {
		headers = append(headers, "DATA MODELS")
	}

	rows := make([][]string, 0, len(packages))
	for _, p := range packages {
		row := []string{p.Key, p.Name, string(p.Flavor), p.ActiveVersion, p.SpaceID}
		if withDependencies {
			names := make([]string, 0, len(p.Datamodels))
			for _, dm := range p.Datamodels {
				names = append(names, dm.Name)
			}
			row = append(row, strings.Join(names, ", "))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableCellStyle.Foreground(ColorHighlight)
			}
			return tableCellStyle
		}).
		String()
}

// shortCommit abbreviates a commit hash for display.
func shortCommit(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}
