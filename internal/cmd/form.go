package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-vitalpress/contract"
	"github.com/goliatone/go-vitalpress/internal/site"
	pkgopenapi "github.com/goliatone/go-vitalpress/pkg/openapi"
	"github.com/goliatone/go-vitalpress/pkg/orchestrator"
	"github.com/goliatone/go-vitalpress/pkg/render"
	pkgtheme "github.com/goliatone/go-vitalpress/pkg/theme"
)

// formDocuments maps the --document values to embedded contracts.
var formDocuments = map[string]string{
	"backend":     contract.Backend,
	"calculators": contract.Calculators,
}

type formFlags struct {
	document string
	output   string
	action   string
	variant  string
}

func newFormCmd() *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "form <operation>",
		Short: "Render a contract form to HTML",
		Long: `Render the form generated for an operation of the embedded contracts.

Example:
  vitalpress form createPost
  vitalpress form bmi --document calculators --variant dark -o bmi.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.document, "document", "backend", "Contract to read: backend or calculators")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&flags.action, "action", "", "Form action URL")
	cmd.Flags().StringVar(&flags.variant, "variant", "", "Theme variant (default theme.variant)")
	return cmd
}

func runForm(cmd *cobra.Command, operationID string, flags formFlags) error {
	document, ok := formDocuments[flags.document]
	if !ok {
		return fmt.Errorf("unknown document %q (want backend or calculators)", flags.document)
	}
	themes, err := pkgtheme.NewDefaultResolver()
	if err != nil {
		return err
	}
	forms, err := site.DefaultForms(themes)
	if err != nil {
		return err
	}
	variant := flags.variant
	if variant == "" {
		variant = cfg.Theme.Variant
	}
	html, err := forms.Generate(cmd.Context(), orchestrator.Request{
		Source:        pkgopenapi.SourceFromFS(document),
		OperationID:   operationID,
		RenderOptions: render.RenderOptions{Action: flags.action},
		ThemeName:     cfg.Theme.Name,
		ThemeVariant:  variant,
	})
	if err != nil {
		return err
	}
	if flags.output == "" {
		_, err = cmd.OutOrStdout().Write(append(html, '\n'))
		return err
	}
	if err := os.WriteFile(flags.output, html, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Form written to %s\n", flags.output)
	return nil
}
