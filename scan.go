package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"github.com/whiskeyjimbo/portprobe/internal/config"
	"github.com/whiskeyjimbo/portprobe/internal/metrics"
	"github.com/whiskeyjimbo/portprobe/internal/rules"
)

type scanOptions struct {
	timeout  time.Duration
	send     string
	receive  int64
	expect   string
	output   string
	textfile string
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <target IP> <port>",
		Short: "Check whether a TCP port accepts connections",
		Long: "scan serves a similar purpose to `nc -vz {ip} {port}`.\n" +
			"It detects an open port on a target and reports how long the connection took.\n" +
			"Only literal IP addresses are accepted; IPv6 addresses must be bracketed.",
		Example: "  portprobe scan 8.8.8.8 53 -t 1s\n" +
			"  portprobe scan 127.0.0.1 6379 -s $'PING\\r\\n' -b 7\n" +
			"  portprobe scan 10.0.0.5 443 --expect 'is_open && elapsed < 200ms'",
		Args: scanArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			req, err := buildRequest(cmd, args, opts)
			if err != nil {
				return err
			}

			output := config.OutputFormat(opts.output)
			if output == "" {
				output = cfg.Output
			}
			if err := output.Validate(); err != nil {
				return err
			}

			condition := opts.expect
			if condition == "" {
				condition = cfg.Expect
			}
			var expectation *rules.Expectation
			if condition != "" {
				if expectation, err = rules.Compile(condition); err != nil {
					return err
				}
			}

			checker := checkers.NewTCPChecker(logger, cfg.DefaultTimeout())
			result, outcome, err := checker.Check(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("address parser exception: %w", err)
			}

			textfile := opts.textfile
			if textfile == "" {
				textfile = cfg.Metrics.Textfile
			}
			if textfile != "" {
				m := metrics.NewPrometheusMetrics(logger)
				m.Observe(result, outcome.Status)
				if err := m.WriteTextfile(textfile); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}

			if err := render(cmd.OutOrStdout(), output, result); err != nil {
				return err
			}

			if expectation != nil {
				satisfied, err := expectation.Evaluate(result)
				if err != nil {
					return err
				}
				if !satisfied {
					return &ExpectationError{Condition: condition}
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.DurationVarP(&opts.timeout, "timeout", "t", config.DefaultTimeout, "time before giving up the connection")
	flags.StringVarP(&opts.send, "send", "s", "", "data to send to the target at the beginning of the connection")
	flags.Int64VarP(&opts.receive, "receive-byte-count", "b", 0, "bytes to receive from the target (after any send data) to mark the connection as open")
	flags.StringVar(&opts.expect, "expect", "", "condition over the result that must hold, e.g. 'is_open && elapsed < 100ms'")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: text, json, yaml")
	flags.StringVar(&opts.textfile, "metrics-textfile", "", "write Prometheus metrics for this probe to a textfile")

	return cmd
}

func scanArgs(_ *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return checkers.ErrMissingHost
	case len(args) == 1:
		return checkers.ErrMissingPort
	case len(args) > 2:
		return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
	}
	return nil
}

func buildRequest(cmd *cobra.Command, args []string, opts *scanOptions) (checkers.Request, error) {
	req := checkers.Request{Host: args[0]}
	if req.Host == "" {
		return req, checkers.ErrMissingHost
	}

	port, err := strconv.Atoi(args[1])
	if err != nil {
		return req, fmt.Errorf("target port error: %w", err)
	}
	req.Port = port

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		timeout := opts.timeout
		req.Timeout = &timeout
	}
	if flags.Changed("send") {
		req.Payload = checkers.PayloadFromString(opts.send)
	}
	req.ReceiveBytes = checkers.ReceiveCount(opts.receive)

	return req, nil
}
