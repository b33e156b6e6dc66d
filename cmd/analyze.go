package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/report"
	"github.com/sells-group/seo-dashboard/internal/validate"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze one website and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(analyzeFormat); err != nil {
			return err
		}

		url, err := validate.NormalizeURL(args[0])
		if err != nil {
			return eris.Wrap(err, validate.Notice(err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalysis(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := env.Pipeline.Analyze(ctx, url)
		if err != nil {
			return err
		}

		return writeAnalysis(os.Stdout, data, analyzeFormat)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(analyzeCmd)
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return eris.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeAnalysis prints data in the requested format.
func writeAnalysis(w io.Writer, data *model.AnalysisData, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		// Round-trip through JSON so keys keep their JSON names.
		raw, err := json.Marshal(data)
		if err != nil {
			return eris.Wrap(err, "analyze: marshal")
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return eris.Wrap(err, "analyze: unmarshal")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "analyze: encode yaml")
		}
		return enc.Close()
	default:
		return report.WriteText(w, data)
	}
}
