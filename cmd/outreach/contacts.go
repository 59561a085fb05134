package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindlinks/outreach/internal/store"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Contact list commands",
	Long: `Import and export the contact list. These commands open the data
file directly and cannot run while the server is up.`,
}

var contactsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsImport,
}

var contactsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export contacts to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsExport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print campaign statistics",
	Long: `Print campaign totals and recent responses. Opens the data file
directly and cannot run while the server is up.`,
	RunE: runStats,
}

func init() {
	contactsCmd.AddCommand(contactsImportCmd, contactsExportCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func runContactsImport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	n, err := st.ImportContactsFile(args[0], logger)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d contacts from %s\n", n, args[0])
	return nil
}

func runContactsExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ExportContactsFile(args[0])
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("Exported %d contacts to %s\n", n, args[0])
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.CampaignStats()
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	fmt.Printf("Contacts: %d total\n", stats.Total)
	fmt.Printf("  Pending:        %d\n", stats.Pending)
	fmt.Printf("  Interested:     %d\n", stats.Interested)
	fmt.Printf("  Not interested: %d\n", stats.NotInterested)
	fmt.Printf("  Response rate:  %s\n", stats.ResponseRate)

	recent, err := st.RecentEvents(10)
	if err != nil {
		return fmt.Errorf("failed to load recent events: %w", err)
	}
	if len(recent) > 0 {
		fmt.Println("Recent activity:")
		for _, ev := range recent {
			line, _ := json.Marshal(ev)
			fmt.Printf("  %s\n", line)
		}
	}

	return nil
}
