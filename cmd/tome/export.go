package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/htmlexport"
)

var exportFlags struct {
	out     string
	title   string
	recover bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export XML content to other formats",
}

var exportHTMLCmd = &cobra.Command{
	Use:   "html <file.xml>",
	Short: "Render an XML file as a standalone HTML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := exportFlags.out
		if outPath == "" {
			h, err := getHome()
			if err != nil {
				return err
			}
			if err := h.EnsureExportsDir(); err != nil {
				return err
			}
			outPath = h.ExportPath(args[0], ".html")
		}

		recovered, err := htmlexport.ExportFile(args[0], outPath, htmlexport.Options{
			Title:   exportFlags.title,
			Recover: exportFlags.recover,
		})
		if err != nil {
			return err
		}

		if recovered {
			fmt.Println("Warning: malformed XML, rendered recovered content only")
		}
		fmt.Printf("Wrote %s\n", outPath)
		return nil
	},
}

func init() {
	exportHTMLCmd.Flags().StringVar(&exportFlags.out, "out", "", "output path (default: ~/.tome/exports/<name>.html)")
	exportHTMLCmd.Flags().StringVar(&exportFlags.title, "title", "", "HTML document title (default: root title attribute)")
	exportHTMLCmd.Flags().BoolVar(&exportFlags.recover, "recover", false, "tolerate malformed XML tails")

	exportCmd.AddCommand(exportHTMLCmd)
	rootCmd.AddCommand(exportCmd)
}
