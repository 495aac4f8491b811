package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/seed"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage raw ranking snapshots",
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import categories, snapshots and brand runs from YAML",
	Long: `Seeds the snapshot tables from a YAML file. The file is validated before
anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotImport,
}

var snapshotDryRun bool

func init() {
	snapshotImportCmd.Flags().BoolVar(&snapshotDryRun, "dry-run", false, "validate the file without writing")
	snapshotCmd.AddCommand(snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	f, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	if snapshotDryRun {
		cmd.Printf("%s is valid: %d categories, %d runs\n", args[0], len(f.Categories), len(f.Runs))
		return nil
	}
	if snapshotWriter == nil {
		return errors.New("snapshot store not configured")
	}

	st, err := seed.Import(cmd.Context(), snapshotWriter, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d categories, %d snapshots, %d runs (%d products, %d aspects)\n",
		st.Categories, st.Snapshots, st.Runs, st.Products, st.Aspects)
	return nil
}
