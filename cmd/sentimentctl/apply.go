package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pscheid92/nlsentiment/internal/app"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply -f settings.yaml",
		Short: "Apply a settings file",
		Long: `Apply a settings file and reconcile the sentiment field. Content types
listed under content_types are enabled with the given fields; all others are
disabled, which deletes their sentiment field and its values.

Example file:

  sentiment_magnitude_threshold: 1.5
  content_types:
    article: [title, body]
    page: []`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readSettingsFile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			rt, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.service.SaveSettings(cmd.Context(), req)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `Settings file ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSettingsFile(stdin io.Reader, path string) (app.SaveSettingsRequest, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return app.SaveSettingsRequest{}, fmt.Errorf("failed to open settings file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return decodeSettings(r)
}

// decodeSettings parses a settings document into a save request. The
// document has the shape of the stored settings.
func decodeSettings(r io.Reader) (app.SaveSettingsRequest, error) {
	var doc struct {
		MagnitudeThreshold *float64            `yaml:"sentiment_magnitude_threshold"`
		ContentTypes       map[string][]string `yaml:"content_types"`
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return app.SaveSettingsRequest{}, errors.New("settings file is empty")
		}
		return app.SaveSettingsRequest{}, fmt.Errorf("failed to parse settings file: %w", err)
	}

	threshold := domain.DefaultMagnitudeThreshold
	if doc.MagnitudeThreshold != nil {
		threshold = *doc.MagnitudeThreshold
	}

	selections := make(map[string]domain.ContentTypeSelection, len(doc.ContentTypes))
	for id, fields := range doc.ContentTypes {
		selections[id] = domain.ContentTypeSelection{Enabled: true, Fields: slices.Clone(fields)}
	}

	return app.SaveSettingsRequest{MagnitudeThreshold: threshold, Selections: selections}, nil
}

func printReport(w io.Writer, report *app.ReconcileReport) {
	for _, ct := range report.Created {
		fmt.Fprintf(w, "created sentiment field on %s\n", ct)
	}
	for _, ct := range report.Deleted {
		fmt.Fprintf(w, "deleted sentiment field from %s\n", ct)
	}
	for _, ct := range report.Failed {
		fmt.Fprintf(w, "failed to reconcile %s\n", ct)
	}
	fmt.Fprintf(w, "settings saved (threshold %g, %d content types enabled)\n",
		report.Settings.MagnitudeThreshold, len(report.Settings.ContentTypes))
}
