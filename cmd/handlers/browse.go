package handlers

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
	"blogpipe/internal/store"
	"blogpipe/internal/tui"
)

// NewBrowseCmd creates the browse command
func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse articles and their connections in the terminal",
		Long: `Launch a terminal UI over the intelligence document: blog articles with
their analysis and ranked connections. Press f to list fallback analyses only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			doc, err := newStore(cfg).LoadIntelligence()
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("intelligence document %s not found, run 'blogpipe analyze' first", cfg.Paths.IntelligenceFile)
			}
			if err != nil {
				return err
			}

			return tui.StartTUI(doc.Articles)
		},
	}
}
