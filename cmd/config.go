package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"boq/internal/config"
	"boq/internal/output"
)

// validConfigKeys lists the supported config keys for set/get.
var validConfigKeys = []string{
	"server.url",
	"flush.cooldown",
	"flush.max_attempts",
	"flush.on_start",
	"watch.interval",
	"watch.credential_poll",
	"watch.log_level",
	"watch.log_format",
}

func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q (use true/false/1/0)", val)
	}
}

func parseDurationValue(val string) (string, error) {
	if _, err := time.ParseDuration(val); err != nil {
		return "", fmt.Errorf("invalid duration %q (use forms like 30s, 5m): %v", val, err)
	}
	return val, nil
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage boq configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := config.Load()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		switch key {
		case "server.url":
			cfg.ServerURL = val
		case "flush.cooldown":
			d, err := parseDurationValue(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Flush.Cooldown = d
		case "flush.max_attempts":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				output.Error("invalid attempt ceiling %q (want a positive integer)", val)
				return fmt.Errorf("invalid attempt ceiling %q", val)
			}
			cfg.Flush.MaxAttempts = intPtr(n)
		case "flush.on_start":
			b, err := parseBool(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Flush.OnStart = boolPtr(b)
		case "watch.interval":
			d, err := parseDurationValue(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Watch.Interval = d
		case "watch.credential_poll":
			d, err := parseDurationValue(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Watch.CredentialPoll = d
		case "watch.log_level":
			level := strings.ToLower(val)
			switch level {
			case "debug", "info", "warn", "error":
				cfg.Watch.LogLevel = level
			default:
				output.Error("invalid log level %q (use debug/info/warn/error)", val)
				return fmt.Errorf("invalid log level %q", val)
			}
		case "watch.log_format":
			format := strings.ToLower(val)
			switch format {
			case "text", "json":
				cfg.Watch.LogFormat = format
			default:
				output.Error("invalid log format %q (use text/json)", val)
				return fmt.Errorf("invalid log format %q", val)
			}
		}

		if err := config.Save(cfg); err != nil {
			output.Error("save config: %v", err)
			return err
		}

		output.Success("set %s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := config.Load()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		var val string
		switch key {
		case "server.url":
			val = cfg.ServerURL
			if val == "" {
				val = "http://localhost:8080 (default)"
			}
		case "flush.cooldown":
			val = cfg.Flush.Cooldown
			if val == "" {
				val = "30s (default)"
			}
		case "flush.max_attempts":
			if cfg.Flush.MaxAttempts != nil {
				val = strconv.Itoa(*cfg.Flush.MaxAttempts)
			} else {
				val = "5 (default)"
			}
		case "flush.on_start":
			if cfg.Flush.OnStart != nil {
				val = strconv.FormatBool(*cfg.Flush.OnStart)
			} else {
				val = "true (default)"
			}
		case "watch.interval":
			val = cfg.Watch.Interval
			if val == "" {
				val = "1m (default)"
			}
		case "watch.credential_poll":
			val = cfg.Watch.CredentialPoll
			if val == "" {
				val = "5s (default)"
			}
		case "watch.log_level":
			val = cfg.Watch.LogLevel
			if val == "" {
				val = "info (default)"
			}
		case "watch.log_format":
			val = cfg.Watch.LogFormat
			if val == "" {
				val = "text (default)"
			}
		}

		fmt.Println(val)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			output.Error("marshal config: %v", err)
			return err
		}

		fmt.Println(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
