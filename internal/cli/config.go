package cli

import (
    "errors"
    "fmt"
    "os"
    "reflect"
    "sort"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/spf13/cobra"
    "github.com/spf13/pflag"
    "gopkg.in/yaml.v3"

    "github.com/mark3labs/swagger2gql/internal/server"
)

const (
    defaultInput     = "openapi.json"
    defaultSchemaOut = "schema.gql"
)

// ServeConfig captures every input of the serve and schema commands after
// merging defaults, config file values, and CLI overrides.
type ServeConfig struct {
    Input        string        `yaml:"input" validate:"required"`
    Upstream     string        `yaml:"upstream" validate:"omitempty,url"`
    Listen       string        `yaml:"listen" validate:"required,hostname_port"`
    Path         string        `yaml:"path" validate:"required,startswith=/"`
    SchemaOut    string        `yaml:"schemaOut"`
    Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
    IncludeTags  []string      `yaml:"includeTags"`
    ExcludeTags  []string      `yaml:"excludeTags"`
    Methods      []string      `yaml:"methods" validate:"dive,oneof=get post put delete patch head options trace"`
    PathPatterns []string      `yaml:"paths"`
    GraphiQL     bool          `yaml:"graphiql"`
    LenientRefs  bool          `yaml:"lenientRefs"`
    Verbose      bool          `yaml:"verbose"`
    LogFormat    string        `yaml:"logFormat" validate:"oneof=auto text json"`
    ConfigPath   string        `yaml:"-"`
}

func defaultServeConfig() ServeConfig {
    return ServeConfig{
        Input:     defaultInput,
        Listen:    server.DefaultAddr,
        Path:      server.DefaultPath,
        SchemaOut: defaultSchemaOut,
        LogFormat: logFormatAuto,
    }
}

var validate = newValidator()

func newValidator() *validator.Validate {
    v := validator.New()
    // Report config keys rather than Go field names.
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return v
}

func addServeFlags(flags *pflag.FlagSet) {
    flags.String("input", "", "Path or URL to the OpenAPI/Swagger document (default openapi.json)")
    flags.String("upstream", "", "Base URL of the REST API (default: first server in the document, else http://localhost:3000)")
    flags.StringSlice("include-tags", nil, "Only expose operations with these tags")
    flags.StringSlice("exclude-tags", nil, "Hide operations with these tags")
    flags.StringSlice("methods", nil, "Only expose operations with these HTTP methods")
    flags.StringSlice("paths", nil, "Only expose paths matching these regular expressions")
    flags.Bool("lenient-refs", false, "Map unresolved $refs to String instead of failing")
}

// resolveServeConfig merges defaults, the --config file and changed flags, in
// that order.
func resolveServeConfig(cmd *cobra.Command) (*ServeConfig, error) {
    cfg := defaultServeConfig()

    configPath, err := cmd.Flags().GetString("config")
    if err != nil {
        return nil, err
    }
    configPath = strings.TrimSpace(configPath)
    if configPath != "" {
        cfg.ConfigPath = configPath
        if err := applyServeConfigFromFile(&cfg, configPath); err != nil {
            return nil, err
        }
    }

    if err := applyServeFlagOverrides(cmd.Flags(), &cfg); err != nil {
        return nil, err
    }

    cfg.normalize()
    if err := cfg.validate(cmd.Name()); err != nil {
        return nil, err
    }
    return &cfg, nil
}

func applyServeFlagOverrides(flags *pflag.FlagSet, cfg *ServeConfig) error {
    strs := map[string]*string{
        "input":      &cfg.Input,
        "upstream":   &cfg.Upstream,
        "listen":     &cfg.Listen,
        "path":       &cfg.Path,
        "out":        &cfg.SchemaOut,
        "schema-out": &cfg.SchemaOut,
        "log-format": &cfg.LogFormat,
    }
    for name, dst := range strs {
        if flags.Lookup(name) == nil || !flags.Changed(name) {
            continue
        }
        value, err := flags.GetString(name)
        if err != nil {
            return err
        }
        *dst = strings.TrimSpace(value)
    }

    lists := map[string]*[]string{
        "include-tags": &cfg.IncludeTags,
        "exclude-tags": &cfg.ExcludeTags,
        "methods":      &cfg.Methods,
        "paths":        &cfg.PathPatterns,
    }
    for name, dst := range lists {
        if flags.Lookup(name) == nil || !flags.Changed(name) {
            continue
        }
        value, err := flags.GetStringSlice(name)
        if err != nil {
            return err
        }
        *dst = value
    }

    bools := map[string]*bool{
        "graphiql":     &cfg.GraphiQL,
        "lenient-refs": &cfg.LenientRefs,
        "verbose":      &cfg.Verbose,
    }
    for name, dst := range bools {
        if flags.Lookup(name) == nil || !flags.Changed(name) {
            continue
        }
        value, err := flags.GetBool(name)
        if err != nil {
            return err
        }
        *dst = value
    }

    if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
        value, err := flags.GetDuration("timeout")
        if err != nil {
            return err
        }
        cfg.Timeout = value
    }
    return nil
}

func (c *ServeConfig) normalize() {
    c.Input = strings.TrimSpace(c.Input)
    c.Upstream = strings.TrimSpace(c.Upstream)
    c.Listen = strings.TrimSpace(c.Listen)
    c.Path = strings.TrimSpace(c.Path)
    c.SchemaOut = strings.TrimSpace(c.SchemaOut)
    c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
    if c.LogFormat == "" {
        c.LogFormat = logFormatAuto
    }
    c.IncludeTags = sanitizeList(c.IncludeTags)
    c.ExcludeTags = sanitizeList(c.ExcludeTags)
    c.PathPatterns = sanitizeList(c.PathPatterns)
    methods := make([]string, 0, len(c.Methods))
    for _, m := range c.Methods {
        methods = append(methods, strings.ToLower(m))
    }
    c.Methods = sanitizeList(methods)
}

func (c *ServeConfig) validate(command string) error {
    if err := validate.Struct(c); err != nil {
        var msgs []string
        if verrs, ok := err.(validator.ValidationErrors); ok {
            for _, fe := range verrs {
                msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describeFieldError(fe)))
            }
        } else {
            msgs = append(msgs, err.Error())
        }
        return newUsageError(fmt.Sprintf("%s: invalid configuration:\n  %s", command, strings.Join(msgs, "\n  ")))
    }

    overlap := intersect(c.IncludeTags, c.ExcludeTags)
    if len(overlap) > 0 {
        return newUsageError(fmt.Sprintf("%s: include/exclude tags overlap: %s", command, strings.Join(overlap, ", ")))
    }
    return nil
}

func describeFieldError(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "is required"
    case "url":
        return fmt.Sprintf("%q is not a valid URL", fe.Value())
    case "hostname_port":
        return fmt.Sprintf("%q is not a host:port address", fe.Value())
    case "startswith":
        return fmt.Sprintf("must start with %q", fe.Param())
    case "gte":
        return fmt.Sprintf("must be at least %s", fe.Param())
    case "oneof":
        return fmt.Sprintf("%v must be one of: %s", fe.Value(), fe.Param())
    default:
        return fmt.Sprintf("failed %s validation", fe.Tag())
    }
}

func sanitizeList(items []string) []string {
    if len(items) == 0 {
        return nil
    }
    seen := make(map[string]struct{}, len(items))
    result := make([]string, 0, len(items))
    for _, item := range items {
        trimmed := strings.TrimSpace(item)
        if trimmed == "" {
            continue
        }
        if _, exists := seen[trimmed]; exists {
            continue
        }
        seen[trimmed] = struct{}{}
        result = append(result, trimmed)
    }
    if len(result) == 0 {
        return nil
    }
    return result
}

func intersect(a, b []string) []string {
    if len(a) == 0 || len(b) == 0 {
        return nil
    }
    set := make(map[string]struct{}, len(a))
    for _, item := range a {
        set[item] = struct{}{}
    }
    var result []string
    for _, item := range b {
        if _, ok := set[item]; ok {
            result = append(result, item)
        }
    }
    sort.Strings(result)
    return result
}

func applyServeConfigFromFile(cfg *ServeConfig, path string) error {
    data, err := os.ReadFile(path)
    if err != nil {
        return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
    }

    // YAML is a superset of JSON, so one decoder covers both formats.
    var raw map[string]any
    if err := yaml.Unmarshal(data, &raw); err != nil {
        return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
    }

    for key, value := range raw {
        if err := applyConfigValue(cfg, normalizeKey(key), value); err != nil {
            if errors.Is(err, errUnknownKey) {
                return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
            }
            return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
        }
    }
    return nil
}

var errUnknownKey = errors.New("unknown key")

func applyConfigValue(cfg *ServeConfig, key string, value any) error {
    var err error
    switch key {
    case "input":
        cfg.Input, err = valueAsString(value)
    case "upstream":
        cfg.Upstream, err = valueAsString(value)
    case "listen":
        cfg.Listen, err = valueAsString(value)
    case "path":
        cfg.Path, err = valueAsString(value)
    case "schemaout":
        cfg.SchemaOut, err = valueAsString(value)
    case "logformat":
        cfg.LogFormat, err = valueAsString(value)
    case "timeout":
        cfg.Timeout, err = valueAsDuration(value)
    case "includetags":
        cfg.IncludeTags, err = valueAsStringSlice(value)
    case "excludetags":
        cfg.ExcludeTags, err = valueAsStringSlice(value)
    case "methods":
        cfg.Methods, err = valueAsStringSlice(value)
    case "paths":
        cfg.PathPatterns, err = valueAsStringSlice(value)
    case "graphiql":
        cfg.GraphiQL, err = valueAsBool(value)
    case "lenientrefs":
        cfg.LenientRefs, err = valueAsBool(value)
    case "verbose":
        cfg.Verbose, err = valueAsBool(value)
    default:
        return errUnknownKey
    }
    return err
}

func normalizeKey(raw string) string {
    lowered := strings.ToLower(strings.TrimSpace(raw))
    lowered = strings.ReplaceAll(lowered, "-", "")
    lowered = strings.ReplaceAll(lowered, "_", "")
    return lowered
}

func valueAsString(v any) (string, error) {
    switch val := v.(type) {
    case string:
        return strings.TrimSpace(val), nil
    case nil:
        return "", nil
    default:
        return "", fmt.Errorf("expected string, got %T", v)
    }
}

func valueAsStringSlice(v any) ([]string, error) {
    switch val := v.(type) {
    case nil:
        return nil, nil
    case string:
        if strings.TrimSpace(val) == "" {
            return nil, nil
        }
        return splitAndTrim(val), nil
    case []any:
        items := make([]string, 0, len(val))
        for idx, elem := range val {
            str, err := valueAsString(elem)
            if err != nil {
                return nil, fmt.Errorf("element %d: %w", idx, err)
            }
            if str != "" {
                items = append(items, str)
            }
        }
        return items, nil
    default:
        return nil, fmt.Errorf("expected string or list, got %T", v)
    }
}

func valueAsBool(v any) (bool, error) {
    switch val := v.(type) {
    case bool:
        return val, nil
    case string:
        switch strings.ToLower(strings.TrimSpace(val)) {
        case "true", "t", "1", "yes", "y":
            return true, nil
        case "false", "f", "0", "no", "n", "":
            return false, nil
        default:
            return false, fmt.Errorf("invalid boolean value %q", val)
        }
    case nil:
        return false, nil
    default:
        return false, fmt.Errorf("expected boolean, got %T", v)
    }
}

// valueAsDuration accepts a Go duration string ("30s") or a number of
// seconds.
func valueAsDuration(v any) (time.Duration, error) {
    switch val := v.(type) {
    case nil:
        return 0, nil
    case int:
        return time.Duration(val) * time.Second, nil
    case float64:
        return time.Duration(val * float64(time.Second)), nil
    case string:
        trimmed := strings.TrimSpace(val)
        if trimmed == "" {
            return 0, nil
        }
        d, err := time.ParseDuration(trimmed)
        if err != nil {
            return 0, fmt.Errorf("invalid duration %q", val)
        }
        return d, nil
    default:
        return 0, fmt.Errorf("expected duration, got %T", v)
    }
}

func splitAndTrim(csv string) []string {
    parts := strings.Split(csv, ",")
    cleaned := make([]string, 0, len(parts))
    for _, part := range parts {
        trimmed := strings.TrimSpace(part)
        if trimmed != "" {
            cleaned = append(cleaned, trimmed)
        }
    }
    return cleaned
}
