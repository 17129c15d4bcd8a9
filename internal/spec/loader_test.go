package spec

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "sync/atomic"
    "testing"
    "time"
)

const minimalJSON = `{
  "openapi": "3.0.0",
  "info": {"title": "Nest API", "version": "1.0"},
  "paths": {
    "/hello": {
      "get": {
        "operationId": "hello",
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func TestLoad_BlocksFileURL(t *testing.T) {
    t.Parallel()
    _, err := Load(context.Background(), "file:///etc/hosts")
    if err == nil {
        t.Fatalf("expected error for file:// URL")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != InputError {
        t.Fatalf("expected InputError, got %v", se.Code)
    }
}

func TestLoad_UnsupportedScheme(t *testing.T) {
    t.Parallel()
    _, err := Load(context.Background(), "ftp://example.com/spec.yaml")
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
}

func TestLoad_EmptyInput(t *testing.T) {
    t.Parallel()
    _, err := Load(context.Background(), "  ")
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
}

func TestLoad_NetworkError(t *testing.T) {
    t.Parallel()
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    _, err := Load(ctx, "http://127.0.0.1:1/spec.yaml", WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
    var se *SpecError
    if !errors.As(err, &se) || se.Code != NetworkError {
        t.Fatalf("expected NetworkError, got %v (%T)", err, err)
    }
}

func TestLoad_JSONFile(t *testing.T) {
    t.Parallel()
    path := filepath.Join(t.TempDir(), "openapi.json")
    if err := os.WriteFile(path, []byte(minimalJSON), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }
    doc, err := Load(context.Background(), path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if doc.Paths["/hello"] == nil || doc.Paths["/hello"].Get.OperationID != "hello" {
        t.Fatalf("expected /hello get operation")
    }
}

func TestLoad_FromURL(t *testing.T) {
    t.Parallel()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(minimalJSON))
    }))
    defer srv.Close()

    doc, err := Load(context.Background(), srv.URL+"/openapi-json")
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if doc.Info.Title != "Nest API" {
        t.Fatalf("title: got %q", doc.Info.Title)
    }
}

func TestLoad_V3_InvalidSpec(t *testing.T) {
    t.Parallel()
    path := filepath.Join(t.TempDir(), "bad.yaml")
    content := strings.TrimSpace(`openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`) + "\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }

    _, err := Load(context.Background(), path)
    if err == nil {
        t.Fatalf("expected validation error for incomplete responses")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != ValidationError && se.Code != ParseError { // parser version differences
        t.Fatalf("expected ValidationError/ParseError, got %v", se.Code)
    }
    if se.Location == "" {
        t.Fatalf("expected location to be set")
    }
}

func TestLoad_UnknownVersion(t *testing.T) {
    t.Parallel()
    path := filepath.Join(t.TempDir(), "x.json")
    if err := os.WriteFile(path, []byte(`{"info": {}}`), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }
    _, err := Load(context.Background(), path)
    var se *SpecError
    if !errors.As(err, &se) || se.Code != ParseError {
        t.Fatalf("expected ParseError, got %v (%T)", err, err)
    }
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
    t.Parallel()
    path := filepath.Join(t.TempDir(), "swagger.yaml")
    content := strings.TrimSpace(`swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
basePath: /api
paths:
  "/hello":
    get:
      operationId: hello
      responses:
        "200":
          description: ok
`) + "\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }

    doc, err := Load(context.Background(), path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if !strings.HasPrefix(doc.OpenAPI, "3.") {
        t.Fatalf("expected OpenAPI v3, got %q", doc.OpenAPI)
    }
    if doc.Paths["/hello"] == nil {
        t.Fatalf("expected /hello to survive conversion")
    }
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
    t.Parallel()
    var calls atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if calls.Add(1) == 1 {
            w.WriteHeader(http.StatusServiceUnavailable)
            return
        }
        _, _ = w.Write([]byte(minimalJSON))
    }))
    defer srv.Close()

    raw, err := Fetch(context.Background(), srv.URL, WithBackoffBase(time.Millisecond))
    if err != nil {
        t.Fatalf("fetch: %v", err)
    }
    if !strings.Contains(string(raw), `"openapi"`) {
        t.Fatalf("unexpected body: %s", raw)
    }
    if got := calls.Load(); got != 2 {
        t.Fatalf("expected 2 attempts, got %d", got)
    }
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
    t.Parallel()
    var calls atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        calls.Add(1)
        http.Error(w, "nope", http.StatusNotFound)
    }))
    defer srv.Close()

    _, err := Fetch(context.Background(), srv.URL, WithBackoffBase(time.Millisecond))
    var se *SpecError
    if !errors.As(err, &se) || se.Code != NetworkError {
        t.Fatalf("expected NetworkError, got %v (%T)", err, err)
    }
    if got := calls.Load(); got != 1 {
        t.Fatalf("expected a single attempt, got %d", got)
    }
}

func TestFetch_RejectsNonSpec(t *testing.T) {
    t.Parallel()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"hello": "world"}`))
    }))
    defer srv.Close()

    _, err := Fetch(context.Background(), srv.URL)
    var se *SpecError
    if !errors.As(err, &se) || se.Code != ParseError {
        t.Fatalf("expected ParseError, got %v (%T)", err, err)
    }
}
