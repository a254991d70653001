// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/momentics/hioload-ring/control"
)

type rootOptions struct {
	configPath string
	stats      bool
	flags      *pflag.FlagSet
	cfg        control.Config
}

func newRootOptions() *rootOptions {
	return &rootOptions{cfg: control.DefaultConfig()}
}

func newRootCommand() *cobra.Command {
	return newRootOptions().command()
}

func (opts *rootOptions) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ringcat",
		Short: "Copy delimited records from stdin to stdout through a byte ring",
		Long: `ringcat reads stdin into a fixed-capacity ring buffer and writes each
delimited record to stdout. When the ring is full the backpressure
policy decides what happens to new bytes: drop, retry, spill or fail.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.configPath, opts.stats,
				cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	d := opts.cfg
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.IntVar(&opts.cfg.Capacity, "capacity", d.Capacity, "ring capacity in bytes")
	f.StringVar((*string)(&opts.cfg.Pump.Policy), "policy", string(d.Pump.Policy), "backpressure policy: drop|retry|spill|fail")
	f.StringVar(&opts.cfg.Delimiter, "delimiter", `\n`, "record delimiter, a single byte or escape")
	f.IntVar(&opts.cfg.MaxLine, "max-line", d.MaxLine, "max record length, 0 means capacity")
	f.StringVar(&opts.cfg.MetricsAddr, "metrics-addr", d.MetricsAddr, "serve Prometheus metrics on this address")
	f.StringVar(&opts.cfg.LogLevel, "log-level", d.LogLevel, "log level")
	f.IntVar(&opts.cfg.ProducerCPU, "producer-cpu", d.ProducerCPU, "pin the producer thread to this cpu, -1 to leave unpinned")
	f.IntVar(&opts.cfg.ConsumerCPU, "consumer-cpu", d.ConsumerCPU, "pin the consumer thread to this cpu, -1 to leave unpinned")
	f.BoolVar(&opts.stats, "stats", false, "print ring statistics to stderr at exit")
	opts.flags = f
	return cmd
}

// resolve loads the config file, if any, and applies explicitly set flags
// on top of it.
func (opts *rootOptions) resolve() (control.Config, error) {
	cfg := control.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = control.LoadFile(opts.configPath); err != nil {
			return cfg, err
		}
	}
	overrides := map[string]func(){
		"capacity":     func() { cfg.Capacity = opts.cfg.Capacity },
		"policy":       func() { cfg.Pump.Policy = opts.cfg.Pump.Policy },
		"delimiter":    func() { cfg.Delimiter = opts.cfg.Delimiter },
		"max-line":     func() { cfg.MaxLine = opts.cfg.MaxLine },
		"metrics-addr": func() { cfg.MetricsAddr = opts.cfg.MetricsAddr },
		"log-level":    func() { cfg.LogLevel = opts.cfg.LogLevel },
		"producer-cpu": func() { cfg.ProducerCPU = opts.cfg.ProducerCPU },
		"consumer-cpu": func() { cfg.ConsumerCPU = opts.cfg.ConsumerCPU },
	}
	opts.flags.Visit(func(fl *pflag.Flag) {
		if apply, ok := overrides[fl.Name]; ok {
			apply()
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
