package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"github.com/whiskeyjimbo/portprobe/internal/config"
	"gopkg.in/yaml.v2"
)

func render(w io.Writer, format config.OutputFormat, result checkers.Result) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case config.OutputYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
		fmt.Fprintf(tw, "address:\t%s\n", result.Address)
		fmt.Fprintf(tw, "port:\t%d\n", result.Port)
		fmt.Fprintf(tw, "result:\t%s\n", result.Result)
		fmt.Fprintf(tw, "is_open:\t%t\n", result.IsOpen)
		fmt.Fprintf(tw, "elapsed:\t%s\n", result.Elapsed)
		return tw.Flush()
	}
}
