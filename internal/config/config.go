package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smazurov/bayled/internal/logging"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "BAYLED_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	// Build set of flags explicitly changed via CLI
	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	// Get config file path
	var configPath string
	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if fieldType.Name == "Config" {
			configPath = v.Field(i).String()
			break
		}
	}

	// Load TOML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var config map[string]any
			if err := toml.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}

			// Apply TOML values using reflection
			for i := 0; i < v.NumField(); i++ {
				field := v.Field(i)
				fieldType := t.Field(i)

				// Skip if this flag was explicitly set via CLI
				flagName := fieldNameToFlag(fieldType.Name)
				if changedFlags[flagName] {
					continue
				}

				if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
					if value := getNestedValue(config, tomlPath); value != nil {
						if err := setFieldValue(field, value); err != nil {
							return fmt.Errorf("invalid %s in %s: %w", tomlPath, configPath, err)
						}
					}
				}
			}
		}
	}

	// Apply environment variable overrides (skip CLI-set flags)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// Skip if this flag was explicitly set via CLI
		flagName := fieldNameToFlag(fieldType.Name)
		if changedFlags[flagName] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
				if err := setFieldValueFromString(field, envValue); err != nil {
					return fmt.Errorf("invalid %s%s: %w", EnvPrefix, envKey, err)
				}
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			return nil
		}
	}
	return nil
}

// setFieldValue sets a field value using reflection. Durations are written
// as strings ("85ms") in TOML.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("duration must be a string like \"100ms\", got %v", value)
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
		} else if i, intOk := value.(int); intOk {
			field.SetInt(int64(i))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			if arr, ok := value.([]any); ok {
				slice := make([]string, len(arr))
				for i, v := range arr {
					if s, strOk := v.(string); strOk {
						slice[i] = s
					}
				}
				field.Set(reflect.ValueOf(slice))
			}
		}
	}
	return nil
}

// setFieldValueFromString sets a field value from string (for env vars).
// Integers accept a 0x prefix.
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}

// LoadLoggingConfig loads logging configuration from a TOML config file.
// Module overrides live in [logging.modules]. Returns the default config if
// the file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var raw struct {
		Logging logging.Config `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg
	}

	if raw.Logging.Level != "" {
		cfg.Level = raw.Logging.Level
	}
	if raw.Logging.Format != "" {
		cfg.Format = raw.Logging.Format
	}
	for module, level := range raw.Logging.Modules {
		cfg.Modules[module] = level
	}

	return cfg
}
