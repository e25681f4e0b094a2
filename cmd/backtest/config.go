package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// applyFileConfig loads a YAML file whose keys are flag names and applies each
// value to the corresponding flag, unless that flag was set explicitly on the
// command line. Precedence: built-in defaults < config file < flags.
func applyFileConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setOnCommandLine := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setOnCommandLine[f.Name] = true })

	for key, value := range values {
		if setOnCommandLine[key] {
			continue
		}
		if flag.Lookup(key) == nil {
			return fmt.Errorf("unknown config key %q", key)
		}
		if err := flag.Set(key, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}
