package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// settingsReader is the part of app.Service used by show.
type settingsReader interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	GetSettingsForm(ctx context.Context) (*app.SettingsForm, error)
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the sentiment settings and the state of each content type",
		Long: `Show the magnitude threshold and, per content type, whether sentiment
analysis is enabled, whether the sentiment field is present and which fields
are analyzed.

The json and yaml outputs print the settings as served to analysis consumers
(through the Redis cache when --redis-url is set). The yaml output can be fed
back into "sentimentctl apply".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runShow(cmd.Context(), cmd.OutOrStdout(), rt.service, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	return cmd
}

func runShow(ctx context.Context, w io.Writer, svc settingsReader, output string) error {
	switch output {
	case outputTable:
		form, err := svc.GetSettingsForm(ctx)
		if err != nil {
			return err
		}
		renderFormTable(w, form)
		return nil
	case outputJSON, outputYAML:
		settings, err := svc.GetSettings(ctx)
		if err != nil {
			return err
		}
		return writeSettings(w, settings, output)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func writeSettings(w io.Writer, settings domain.Settings, output string) error {
	if settings.ContentTypes == nil {
		settings.ContentTypes = map[string][]string{}
	}

	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(settings)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func renderFormTable(w io.Writer, form *app.SettingsForm) {
	fmt.Fprintf(w, "Magnitude threshold: %g\n", form.MagnitudeThreshold)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Content type", "Enabled", "Field present", "Analyzed fields"})
	for _, ct := range form.ContentTypes {
		fields := "-"
		if len(ct.Selected) > 0 {
			fields = strings.Join(ct.Selected, ", ")
		}
		t.AppendRow(table.Row{ct.ID, yesNo(ct.Enabled), yesNo(ct.Provisioned), fields})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter},
	})
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
