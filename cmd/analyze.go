package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deva-0608/dataslide/internal/jobs"
	"github.com/deva-0608/dataslide/internal/scoring"
)

var (
	anaDelimiter  string
	anaDecimal    string
	anaThousands  string
	anaSheetName  string
	anaSheetIndex int
	anaMaxRows    int
	anaJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Submit one file and process it synchronously",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		store := jobs.NewStore(c.StorageRoot)
		p := newPipeline(c, store)
		if anaMaxRows > 0 {
			p.Load.MaxRows = anaMaxRows
		}
		if err := applyLoadFlags(&p.Load.Delimiter, &p.Load.DecimalSeparator, &p.Load.ThousandsSeparator); err != nil {
			return err
		}
		if anaSheetName != "" {
			p.Load.SheetName = anaSheetName
		}
		if cmd.Flags().Changed("sheet-index") {
			p.Load.SheetIndex = anaSheetIndex
		}

		id, err := submitFile(store, args[0])
		if err != nil {
			return err
		}
		st, err := newCoordinator(c, store, p, log).Process(id)
		if err != nil {
			return err
		}
		if st != jobs.Completed {
			if f, ok, _ := store.ReadFailure(id); ok {
				return fmt.Errorf("job %s %s at %s: %s", id, st, f.Stage, f.Message)
			}
			return fmt.Errorf("job %s ended %s", id, st)
		}

		out := cmd.OutOrStdout()
		if anaJSON {
			b, err := store.ReadArtifact(id, jobs.DescriptionFile)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		b, err := store.ReadArtifact(id, jobs.FeatureInsightsFile)
		if err != nil {
			return err
		}
		var res scoring.Result
		if err := json.Unmarshal(b, &res); err != nil {
			return fmt.Errorf("decode feature insights: %w", err)
		}
		fmt.Fprintf(out, "✓ Job %s completed\n", id)
		fmt.Fprintf(out, "  outputs: %s\n", store.OutputDir(id))
		for _, fs := range res.OverallRank {
			fmt.Fprintf(out, "  %-12s %-24s %.3f\n", fs.Class, fs.Feature, float64(fs.Score))
		}
		return nil
	},
}

// applyLoadFlags maps the locale flags onto dataset options.
func applyLoadFlags(delim, decimal, thousands *rune) error {
	if anaDelimiter != "" {
		switch anaDelimiter {
		case ",":
			*delim = ','
		case "\t", "tab":
			*delim = '\t'
		case ";":
			*delim = ';'
		case "|", "pipe":
			*delim = '|'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", anaDelimiter)
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(anaDecimal)) {
	case ",", "comma":
		*decimal = ','
	case ".", "dot":
		*decimal = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", anaDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(anaThousands)) {
	case ",":
		*thousands = ','
	case ".":
		*thousands = '.'
	case "space", " ":
		*thousands = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", anaThousands)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (sniffed if omitted)")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX/XLS: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX/XLS: 1-based sheet index (used if --sheet-name not provided)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print description.json instead of the feature ranking")
}
