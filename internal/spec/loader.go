package spec

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "path/filepath"
    "regexp"
    "strings"
    "time"

    openapi2 "github.com/getkin/kin-openapi/openapi2"
    "github.com/getkin/kin-openapi/openapi2conv"
    "github.com/getkin/kin-openapi/openapi3"
    "gopkg.in/yaml.v3"
)

// DefaultSourceURL is where NestJS-style services publish their OpenAPI JSON.
const DefaultSourceURL = "http://localhost:3000/auth/openapi-json"

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
    InputError      ErrorCode = "InputError"
    NetworkError    ErrorCode = "NetworkError"
    ParseError      ErrorCode = "ParseError"
    ValidationError ErrorCode = "ValidationError"
    ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
    Code        ErrorCode
    Message     string
    Location    string // file path or URL
    JSONPointer string // e.g. "#/paths/~1pets/get"
    Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Settings configures loader and fetch behavior.
type Settings struct {
    // HTTPTimeout bounds each HTTP request.
    HTTPTimeout time.Duration
    // MaxRetries for transient HTTP failures (>=500, 429, or network errors).
    MaxRetries int
    // BackoffBase is the base delay for exponential backoff.
    BackoffBase time.Duration
    // AllowFileRefs permits file:// external refs for documents fetched over
    // HTTP. Local documents always allow them.
    AllowFileRefs bool
}

func DefaultSettings() Settings {
    return Settings{
        HTTPTimeout: 10 * time.Second,
        MaxRetries:  3,
        BackoffBase: 200 * time.Millisecond,
    }
}

type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }

// Load reads, validates, and returns an OpenAPI v3 document. Swagger v2.0
// input is converted to v3 via openapi2conv.
//
// input may be a filesystem path or an http/https URL; file:// URLs are rejected.
func Load(ctx context.Context, input string, opts ...Option) (*openapi3.T, error) {
    settings := DefaultSettings()
    for _, opt := range opts {
        opt(&settings)
    }

    raw, location, rootIsFile, err := readSource(ctx, input, settings)
    if err != nil {
        return nil, err
    }
    where := location.String()
    if rootIsFile {
        where = location.Path
    }

    version, err := detectSpecVersion(raw)
    if err != nil {
        return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: where, Cause: err}
    }

    var doc *openapi3.T
    switch version {
    case 3:
        doc, err = newLoader(settings, rootIsFile).LoadFromDataWithPath(raw, location)
        if err != nil {
            return nil, mapValidateOrParseErr(err, where)
        }
    case 2:
        doc, err = convertV2ToV3(raw)
        if err != nil {
            return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: where, Cause: err}
        }
        if err := newLoader(settings, rootIsFile).ResolveRefsIn(doc, location); err != nil {
            return nil, mapValidateOrParseErr(err, where)
        }
    }

    if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
        return nil, mapValidateOrParseErr(err, where)
    }
    return doc, nil
}

// readSource returns the raw document bytes together with the location used
// to resolve relative refs.
func readSource(ctx context.Context, input string, settings Settings) ([]byte, *url.URL, bool, error) {
    input = strings.TrimSpace(input)
    if input == "" {
        return nil, nil, false, &SpecError{Code: InputError, Message: "spec: input is empty"}
    }

    u, uerr := url.Parse(input)
    if uerr == nil && u.Scheme != "" && u.Host != "" {
        if err := checkScheme(u, input); err != nil {
            return nil, nil, false, err
        }
        raw, err := fetchWithRetry(ctx, input, settings)
        if err != nil {
            return nil, nil, false, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
        }
        return raw, u, false, nil
    }
    if uerr == nil && strings.EqualFold(u.Scheme, "file") {
        return nil, nil, false, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked", Location: input}
    }

    abs, err := filepath.Abs(input)
    if err != nil {
        return nil, nil, false, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
    }
    raw, err := os.ReadFile(abs)
    if err != nil {
        return nil, nil, false, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
    }
    return raw, &url.URL{Path: filepath.ToSlash(abs)}, true, nil
}

func checkScheme(u *url.URL, input string) error {
    switch scheme := strings.ToLower(u.Scheme); scheme {
    case "http", "https":
        return nil
    case "file":
        return &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked", Location: input}
    default:
        return &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
    }
}

// Fetch downloads the document at rawURL with the retry policy from opts.
// Used by the fetch command to materialise the input file.
func Fetch(ctx context.Context, rawURL string, opts ...Option) ([]byte, error) {
    settings := DefaultSettings()
    for _, opt := range opts {
        opt(&settings)
    }
    u, err := url.Parse(strings.TrimSpace(rawURL))
    if err != nil || u.Host == "" {
        return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: invalid URL %q", rawURL), Location: rawURL, Cause: err}
    }
    if err := checkScheme(u, rawURL); err != nil {
        return nil, err
    }
    raw, err := fetchWithRetry(ctx, u.String(), settings)
    if err != nil {
        return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", rawURL, err), Location: rawURL, Cause: err}
    }
    if _, err := detectSpecVersion(raw); err != nil {
        return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: rawURL, Cause: err}
    }
    return raw, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
    loader := openapi3.NewLoader()
    loader.IsExternalRefsAllowed = true
    client := &http.Client{Timeout: settings.HTTPTimeout}
    allowFile := settings.AllowFileRefs || rootIsFile
    loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
        switch strings.ToLower(uri.Scheme) {
        case "", "file":
            if !allowFile {
                return nil, fmt.Errorf("blocked file ref: %s", uri.String())
            }
            path := uri.Path
            if path == "" {
                path = uri.Opaque
            }
            return os.ReadFile(filepath.FromSlash(path))
        case "http", "https":
            resp, err := client.Get(uri.String())
            if err != nil {
                return nil, err
            }
            defer resp.Body.Close()
            if resp.StatusCode >= 400 {
                return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
            }
            return io.ReadAll(resp.Body)
        default:
            return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
        }
    }
    return loader
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
    var root map[string]any
    if err := yaml.Unmarshal(data, &root); err != nil {
        return 0, fmt.Errorf("parse spec: %w", err)
    }
    if s, _ := root["openapi"].(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
        return 3, nil
    }
    if s, _ := root["swagger"].(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
        return 2, nil
    }
    return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

// convertV2ToV3 goes through JSON because openapi2.T only carries json tags.
func convertV2ToV3(data []byte) (*openapi3.T, error) {
    js, err := yamlToJSON(data)
    if err != nil {
        return nil, err
    }
    var v2 openapi2.T
    if err := json.Unmarshal(js, &v2); err != nil {
        return nil, err
    }
    return openapi2conv.ToV3(&v2)
}

func yamlToJSON(data []byte) ([]byte, error) {
    if json.Valid(data) {
        return data, nil
    }
    var v any
    if err := yaml.Unmarshal(data, &v); err != nil {
        return nil, err
    }
    return json.Marshal(stringKeys(v))
}

// ToJSON returns a JSON or YAML document as JSON indented by two spaces.
func ToJSON(data []byte) ([]byte, error) {
    var v any
    if err := yaml.Unmarshal(data, &v); err != nil {
        return nil, fmt.Errorf("decode document: %w", err)
    }
    out, err := json.MarshalIndent(stringKeys(v), "", "  ")
    if err != nil {
        return nil, fmt.Errorf("encode document: %w", err)
    }
    return append(out, '\n'), nil
}

// stringKeys rewrites non-string mapping keys (unquoted status codes) so the
// value can be JSON encoded.
func stringKeys(v any) any {
    switch t := v.(type) {
    case map[string]any:
        for k, e := range t {
            t[k] = stringKeys(e)
        }
        return t
    case map[any]any:
        out := make(map[string]any, len(t))
        for k, e := range t {
            out[fmt.Sprint(k)] = stringKeys(e)
        }
        return out
    case []any:
        for i, e := range t {
            t[i] = stringKeys(e)
        }
        return t
    default:
        return v
    }
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
    client := &http.Client{Timeout: settings.HTTPTimeout}
    backoff := settings.BackoffBase
    if backoff <= 0 {
        backoff = 200 * time.Millisecond
    }
    attempts := settings.MaxRetries
    if attempts <= 0 {
        attempts = 1
    }
    var lastErr error
    for i := 0; i < attempts; i++ {
        body, retry, err := fetchOnce(ctx, client, rawURL)
        if err == nil {
            return body, nil
        }
        if !retry {
            return nil, err
        }
        lastErr = err
        if i == attempts-1 {
            break
        }
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(backoff):
        }
        backoff *= 2
    }
    if lastErr == nil {
        lastErr = errors.New("fetch failed")
    }
    return nil, lastErr
}

// fetchOnce performs one GET and reports whether a failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, bool, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
    if err != nil {
        return nil, false, err
    }
    req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")
    resp, err := client.Do(req)
    if err != nil {
        return nil, ctx.Err() == nil, err
    }
    defer resp.Body.Close()
    if resp.StatusCode < 300 {
        body, err := io.ReadAll(resp.Body)
        return body, false, err
    }
    if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
        return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
    }
    body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
    return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func mapValidateOrParseErr(err error, location string) error {
    code := ValidationError
    lower := strings.ToLower(err.Error())
    if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") || strings.Contains(lower, "unmarshal") {
        code = ParseError
    }
    return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: extractJSONPointer(err), Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
    if err == nil {
        return ""
    }
    if me, ok := err.(openapi3.MultiError); ok && len(me) > 0 {
        return extractJSONPointer(me[0])
    }
    var se *openapi3.SchemaError
    if errors.As(err, &se) {
        if parts := se.JSONPointer(); len(parts) > 0 {
            return "#/" + strings.Join(parts, "/")
        }
        if se.SchemaField != "" {
            return se.SchemaField
        }
    }
    return jsonPtrRe.FindString(err.Error())
}

// canProceedDespiteValidation lets unresolved-ref failures through; the
// translator reports them with the offending type name instead.
func canProceedDespiteValidation(err error) bool {
    if err == nil {
        return true
    }
    s := strings.ToLower(err.Error())
    return strings.Contains(s, "unresolved ref")
}
