package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bytecarve/bytecarve/internal/signature"
)

// NewFormatsCmd creates the formats command.
func NewFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the file formats bytecarve can recover",
		Long: `Formats prints the signature catalog: every format tag the scan command
accepts via --types, together with its output extension, whether it has a
trailer usable by deep scan, its maximum candidate size, and the content
markers used to validate candidates.`,
		Run: func(cmd *cobra.Command, _ []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tEXT\tTRAILER\tMAX SIZE\tVALIDATION")

			for _, spec := range signature.All() {
				trailer := "-"
				if spec.HasTrailer() {
					trailer = "yes"
				}

				validation := "-"
				if len(spec.Validation) > 0 {
					markers := make([]string, 0, len(spec.Validation))
					for _, v := range spec.Validation {
						markers = append(markers, printableMarker(v))
					}
					validation = strings.Join(markers, ", ")
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					spec.Tag,
					spec.Extension,
					trailer,
					humanize.IBytes(uint64(spec.EffectiveMaxSize())),
					validation,
				)
			}

			_ = tw.Flush()
		},
	}
}

// printableMarker renders a validation pattern for display: literal text
// when printable, hex otherwise.
func printableMarker(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%#x", b)
		}
	}
	return string(b)
}
