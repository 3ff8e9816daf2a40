package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quackster/libreshockwave/runtime"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the shockplay config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runtime.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("base_url:                 %s\n", cfg.BaseURL)
		fmt.Printf("fetch_timeout_seconds:    %d\n", cfg.FetchTimeoutSeconds)
		fmt.Printf("default_tempo:            %d\n", cfg.DefaultTempo)
		fmt.Printf("step_limit:               %d\n", cfg.StepLimit)
		fmt.Printf("unknown_opcode_tolerance: %d\n", cfg.UnknownOpcodeTolerance)
		fmt.Printf("trace_enabled:            %v\n", cfg.TraceEnabled)
		fmt.Printf("trace_filters:            %v\n", cfg.TraceFilters)
		fmt.Printf("debug_listen_addr:        %s\n", cfg.DebugListenAddr)
		fmt.Printf("log_level:                %s\n", cfg.LogLevel)
		fmt.Printf("log_format:               %s\n", cfg.LogFormat)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runtime.Save(runtime.Default(), cfgFile); err != nil {
			return err
		}
		fmt.Println("wrote default configuration")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
