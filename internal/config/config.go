// Package config layers a TOML file and POWERIND_ environment variables
// onto the CLI options struct.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/casing"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "POWERIND_"

// LoadConfig fills opts with precedence CLI flags > env vars > config file.
// opts must be a pointer to a struct. The file path comes from its Config
// field. Fields whose flag was set on cmd are left alone.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changed := changedFlags(cmd)
	skip := func(f reflect.StructField) bool {
		return changed[fieldNameToFlag(f.Name)]
	}

	if path := configPath(v); path != "" {
		tree, err := readTOML(path)
		if err != nil {
			return err
		}
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			key := f.Tag.Get("toml")
			if key == "" || skip(f) {
				continue
			}
			if value := getNestedValue(tree, key); value != nil {
				if err := setFieldValue(v.Field(i), value); err != nil {
					return fmt.Errorf("config %s: %w", key, err)
				}
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("env")
		if key == "" || skip(f) {
			continue
		}
		if raw := os.Getenv(EnvPrefix + key); raw != "" {
			if err := setFieldValueFromString(v.Field(i), raw); err != nil {
				return fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
			}
		}
	}
	return nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	})
	return changed
}

func configPath(v reflect.Value) string {
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return ""
}

// readTOML returns nil for a missing file so a default path can be passed.
func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return tree, nil
}

// fieldNameToFlag returns the flag humacli registers for a struct field.
// Example: "MQTTBroker" -> "mqtt-broker", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	return casing.Kebab(fieldName)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data
	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue assigns a decoded TOML value. String fields also take
// integers so durations can be written as a bare number of seconds.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		switch v := value.(type) {
		case string:
			field.SetString(v)
			return nil
		case int64:
			field.SetString(strconv.FormatInt(v, 10))
			return nil
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
			return nil
		}
	case reflect.Int:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// setFieldValueFromString parses an env var into the field.
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
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
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// ParseDuration reads a duration option: "30s" style strings or a bare
// number of seconds.
func ParseDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err == nil {
		return d, nil
	}
	secs, intErr := strconv.ParseInt(value, 10, 64)
	if intErr != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
