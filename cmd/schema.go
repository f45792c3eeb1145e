package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/deva-0608/dataslide/internal/deck"
	"github.com/deva-0608/dataslide/internal/insight"
	"github.com/deva-0608/dataslide/internal/jobs"
	"github.com/deva-0608/dataslide/internal/scoring"
)

// documents maps schema names to the artifact types they describe.
var documents = map[string]func() any{
	"description": func() any { return &insight.Artifact{} },
	"features":    func() any { return &scoring.Result{} },
	"preview":     func() any { return &deck.Manifest{} },
	"error":       func() any { return &jobs.Failure{} },
}

var schemaCmd = &cobra.Command{
	Use:   "schema <document>",
	Short: "Print the JSON Schema of an output document",
	Long:  "Print the JSON Schema of an output document: " + strings.Join(documentNames(), ", ") + ".",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := documentSchema(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	},
}

func documentSchema(name string) ([]byte, error) {
	newDoc, ok := documents[name]
	if !ok {
		return nil, fmt.Errorf("unknown document %q (use %s)", name, strings.Join(documentNames(), ", "))
	}
	r := &jsonschema.Reflector{}
	b, err := json.MarshalIndent(r.Reflect(newDoc()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return b, nil
}

func documentNames() []string {
	names := make([]string, 0, len(documents))
	for n := range documents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
