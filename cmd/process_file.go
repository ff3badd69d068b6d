/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/cache"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/service"
)

// processFileCmd represents the processFile command
var processFileCmd = &cobra.Command{
	Use:   "process-file",
	Short: "Process one file and print the extraction result",
	Long: `Runs a single file through the processing pipeline without a
server or database and prints the result as JSON. Useful for checking
what a given document extracts to before uploading it.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		forceOCR, _ := cmd.Flags().GetBool("force-ocr")
		languages, _ := cmd.Flags().GetStringArray("ocr-language")

		content, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("Failed to read file: %v", err)
		}

		processing := config.DefaultProcessingConfig()
		store := cache.NewInMemoryCache()
		monitor := service.NewResourceMonitor(processing.MaxMemoryMB, processing.MaxCPUPercent)
		enhanced := service.NewEnhancedExtractor(
			service.NewCLIConverter(),
			monitor,
			cache.NewPartialResultCache(store),
			processing.ProcessingTimeout,
		)
		processor := service.NewFileProcessor(service.NewFormatRouter(), enhanced, service.NewBasicExtractor(), nil)

		result := processor.ProcessFile(context.Background(), filepath.Base(filePath), content, forceOCR, languages)
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		fmt.Println(string(output))
	},
}

func init() {
	rootCmd.AddCommand(processFileCmd)

	processFileCmd.Flags().StringP("file", "f", "", "Path to the file to process")
	processFileCmd.Flags().Bool("force-ocr", false, "Force full page OCR")
	processFileCmd.Flags().StringArrayP("ocr-language", "l", []string{}, "OCR languages")
	processFileCmd.MarkFlagRequired("file")
}
