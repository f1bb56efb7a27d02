package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Options selects the sources layered around the environment.
// Precedence (highest to lowest): changed flags > env vars > file > defaults.
type Options struct {
	// File is an optional YAML file keyed like the `key` struct tags.
	File string

	// Flags are consulted for fields with a `flag` tag. Only flags the
	// user actually set take part.
	Flags *pflag.FlagSet
}

// Load reads configuration from defaults and environment variables.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads configuration from every source in opts, applies
// it to a Config and validates the result.
func LoadWithOptions(opts Options) (*Config, error) {
	cfg := &Config{}
	fields := collectFields(reflect.ValueOf(cfg).Elem(), nil)

	k, err := newKoanf(fields, opts)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := applyFields(k, fields); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// fieldSpec is one settable leaf of Config and its tags.
type fieldSpec struct {
	value    reflect.Value
	key      string
	env      string
	envAlt   string
	def      string
	flag     string
	required bool
}

// collectFields recursively walks a struct and returns its tagged fields.
func collectFields(v reflect.Value, out []fieldSpec) []fieldSpec {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			out = collectFields(fieldVal, out)
			continue
		}

		key := field.Tag.Get("key")
		if key == "" {
			continue
		}

		out = append(out, fieldSpec{
			value:    fieldVal,
			key:      key,
			env:      field.Tag.Get("env"),
			envAlt:   field.Tag.Get("envAlt"),
			def:      field.Tag.Get("default"),
			flag:     field.Tag.Get("flag"),
			required: field.Tag.Get("required") == "true",
		})
	}

	return out
}

// newKoanf loads every source into a fresh koanf instance in precedence order.
func newKoanf(fields []fieldSpec, opts Options) (*koanf.Koanf, error) {
	k := koanf.New(".")

	defaults := make(map[string]interface{})
	primary := make(map[string]string)
	alternate := make(map[string]string)
	flagKeys := make(map[string]string)
	for _, f := range fields {
		if f.def != "" {
			defaults[f.key] = f.def
		}
		if f.env != "" {
			primary[f.env] = f.key
		}
		if f.envAlt != "" {
			alternate[f.envAlt] = f.key
		}
		if f.flag != "" {
			flagKeys[f.flag] = f.key
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Config file
	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", opts.File, err)
		}
	}

	// 3. Environment; alternates first so primary names win
	for _, names := range []map[string]string{alternate, primary} {
		if err := k.Load(env.ProviderWithValue("", ".", envMapper(names)), nil); err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
	}

	// 4. Flags
	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	return k, nil
}

// envMapper maps known variable names to config keys and drops the rest.
// Empty values count as unset.
func envMapper(names map[string]string) func(string, string) (string, interface{}) {
	return func(name, value string) (string, interface{}) {
		key, ok := names[name]
		if !ok || value == "" {
			return "", nil
		}
		return key, value
	}
}

// applyFields copies resolved values from k into the struct fields.
func applyFields(k *koanf.Koanf, fields []fieldSpec) error {
	for _, f := range fields {
		value := stringValue(k.Get(f.key))

		if value == "" {
			if f.required {
				return fmt.Errorf("required setting %s (%s) is not set", f.key, f.env)
			}
			continue
		}

		if err := setField(f.value, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", f.key, value, err)
		}
	}
	return nil
}

// stringValue flattens a koanf value into the string form setField parses.
// Lists from YAML or flags become comma-separated.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Persistent() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Extract.MaxFileSize <= 0 {
		errs = append(errs, "EXTRACT_MAX_FILE_SIZE must be positive")
	}
	if c.Extract.MaxConcurrent <= 0 {
		errs = append(errs, "EXTRACT_MAX_CONCURRENT must be positive")
	}
	if c.Extract.MaxWaitTime <= 0 {
		errs = append(errs, "EXTRACT_MAX_WAIT_TIME must be positive")
	}
	if c.Extract.Timeout <= 0 {
		errs = append(errs, "EXTRACT_TIMEOUT must be positive")
	}
	if c.Extract.MaxLineSize <= 0 {
		errs = append(errs, "EXTRACT_MAX_LINE_SIZE must be positive")
	}
	if c.Extract.Retained <= 0 {
		errs = append(errs, "EXTRACT_RETAINED must be positive")
	}

	if !strings.HasPrefix(c.Report.Extension, ".") {
		errs = append(errs, fmt.Sprintf("REPORT_EXTENSION (%q) must start with a dot", c.Report.Extension))
	}
	if c.Report.SampleRows < 0 {
		errs = append(errs, "REPORT_SAMPLE_ROWS must be non-negative")
	}
	validOutputs := map[string]bool{"table": true, "json": true}
	if !validOutputs[strings.ToLower(c.Report.Format)] {
		errs = append(errs, fmt.Sprintf("REPORT_FORMAT (%q) must be one of: table, json", c.Report.Format))
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Database URLs, API keys and the Seq URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	if c.Database.Persistent() {
		fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
			c.Database.MaxConns, c.Database.MinConns)
	} else {
		b.WriteString("Database: {in-memory}, ")
	}
	fmt.Fprintf(&b, "Extract: {MaxFileSize: %d, MaxConcurrent: %d, Retained: %d}, ",
		c.Extract.MaxFileSize, c.Extract.MaxConcurrent, c.Extract.Retained)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q, Seq: %v}",
		c.Logging.Level, c.Logging.Format, c.Logging.SeqURL != "")
	b.WriteString("}")
	return b.String()
}
