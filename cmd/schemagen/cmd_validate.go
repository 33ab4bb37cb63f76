package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate bootstrap files through the server's own loaders",
	Long: `Validate providers and vocabulary files by loading them exactly the way the
server does at startup. A file this command accepts will boot.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("providers", "configs/providers.yml", "Providers file to validate")
	validateCmd.Flags().String("vocabulary", "configs/vocabulary.yml", "Vocabulary file to validate")
}

func runValidate(cmd *cobra.Command, args []string) error {
	providersPath, _ := cmd.Flags().GetString("providers")
	vocabularyPath, _ := cmd.Flags().GetString("vocabulary")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ProvidersFile = providersPath
	cfg.VocabularyFile = vocabularyPath

	registry, err := config.LoadProviders(cfg)
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	fmt.Printf("✓ %s: %d providers, %d enabled\n", providersPath, registry.Len(), len(registry.Enabled()))

	vocab, err := config.LoadVocabulary(cfg)
	if err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	if _, err := lookup.NewClassifier(vocab); err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	fmt.Printf("✓ %s: vocabulary compiles\n", vocabularyPath)

	return nil
}
