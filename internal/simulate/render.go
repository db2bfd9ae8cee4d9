package simulate

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders r to w as a table, JSON or YAML.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return writeTable(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeTable(w io.Writer, r Report) error {
	//nolint:errcheck // header lines go to the same writer checked by Flush
	fmt.Fprintf(w, "pool=%d count=%d rounds=%d seed=%d\n\n", r.PoolSize, r.Count, r.Rounds, r.Seed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	//nolint:errcheck // tabwriter buffers until Flush
	fmt.Fprintln(tw, "SAMPLER\tREPEAT%\tSTREAK\tMAX\tMIN\tCV")
	//nolint:errcheck // tabwriter buffers until Flush
	fmt.Fprintln(tw, "-------\t-------\t------\t---\t---\t--")
	for _, res := range r.Results {
		//nolint:errcheck // tabwriter buffers until Flush
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%d\t%d\t%.3f\n",
			res.Name, res.AverageRepeatRate, res.LongestStreak, res.MaxPicks, res.MinPicks, res.CV)
	}
	return tw.Flush()
}
