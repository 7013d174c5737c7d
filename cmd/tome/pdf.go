package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/pdftext"
)

var pdfTextOut string

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Work with PDF source files",
}

var pdfTextCmd = &cobra.Command{
	Use:   "text <file.pdf>",
	Short: "Extract plain text from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		if !strings.EqualFold(filepath.Ext(input), ".pdf") {
			return fmt.Errorf("not a PDF file: %s", input)
		}

		outPath := pdfTextOut
		if outPath == "" {
			outPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".txt"
		}

		pages, err := pdftext.ExtractFile(input, outPath)
		if err != nil {
			return err
		}

		fmt.Printf("Extracted %d pages to %s\n", pages, outPath)
		return nil
	},
}

func init() {
	pdfTextCmd.Flags().StringVar(&pdfTextOut, "out", "", "output path (default: alongside the PDF with a .txt suffix)")

	pdfCmd.AddCommand(pdfTextCmd)
	rootCmd.AddCommand(pdfCmd)
}
