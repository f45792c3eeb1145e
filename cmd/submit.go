package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/jobs"
)

var submitCmd = &cobra.Command{
	Use:   "submit <files...>",
	Short: "Copy CSV/XLSX/XLS files into uploads/ as new jobs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		store := jobs.NewStore(c.StorageRoot)
		for _, f := range files {
			id, err := submitFile(store, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Submitted %s as job %s\n", f, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func submitFile(store *jobs.Store, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ok := false
	for _, e := range dataset.SupportedExtensions() {
		ok = ok || e == ext
	}
	if !ok {
		return "", fmt.Errorf("%s: please submit a CSV or Excel file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	id := uuid.NewString()[:8]
	if _, err := store.SaveUpload(id, ext, f); err != nil {
		return "", err
	}
	return id, nil
}
