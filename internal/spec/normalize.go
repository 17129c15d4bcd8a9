package spec

import (
    "context"
    "fmt"
    "regexp"
    "sort"
    "strings"

    "github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures how the ServiceModel is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
    includeTags map[string]struct{}
    excludeTags map[string]struct{}
    methods     map[HttpMethod]struct{}
    pathRes     []*regexp.Regexp
    badPatterns []string
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        c.includeTags = addTags(c.includeTags, tags)
    }
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        c.excludeTags = addTags(c.excludeTags, tags)
    }
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
    for _, t := range tags {
        t = strings.TrimSpace(t)
        if t == "" {
            continue
        }
        if set == nil {
            set = make(map[string]struct{}, len(tags))
        }
        set[t] = struct{}{}
    }
    return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
    return func(c *buildConfig) {
        for _, m := range methods {
            m = HttpMethod(strings.ToLower(strings.TrimSpace(string(m))))
            if m == "" {
                continue
            }
            if c.methods == nil {
                c.methods = make(map[HttpMethod]struct{}, len(methods))
            }
            c.methods[m] = struct{}{}
        }
    }
}

// WithPathPatterns keeps only paths matching at least one regular expression.
// An invalid pattern makes BuildServiceModel fail.
func WithPathPatterns(patterns []string) BuildOption {
    return func(c *buildConfig) {
        for _, p := range patterns {
            p = strings.TrimSpace(p)
            if p == "" {
                continue
            }
            re, err := regexp.Compile(p)
            if err != nil {
                c.badPatterns = append(c.badPatterns, p)
                continue
            }
            c.pathRes = append(c.pathRes, re)
        }
    }
}

// methodOrder is the stable order operations are read from a path item.
var methodOrder = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE}

func operationFor(item *openapi3.PathItem, m HttpMethod) *openapi3.Operation {
    switch m {
    case GET:
        return item.Get
    case POST:
        return item.Post
    case PUT:
        return item.Put
    case DELETE:
        return item.Delete
    case PATCH:
        return item.Patch
    case HEAD:
        return item.Head
    case OPTIONS:
        return item.Options
    case TRACE:
        return item.Trace
    }
    return nil
}

// BuildServiceModel converts an OpenAPI v3 document into the Internal Model (IM).
// Filters drop operations; a path left with no operations is dropped too.
func BuildServiceModel(ctx context.Context, doc *openapi3.T, opts ...BuildOption) (*ServiceModel, error) {
    _ = ctx
    if doc == nil {
        return nil, fmt.Errorf("nil document")
    }

    cfg := &buildConfig{}
    for _, opt := range opts {
        opt(cfg)
    }
    if len(cfg.badPatterns) > 0 {
        return nil, fmt.Errorf("invalid path pattern(s): %s", strings.Join(cfg.badPatterns, ", "))
    }

    sm := &ServiceModel{Schemas: map[string]Schema{}}
    if doc.Info != nil {
        sm.Title = safeStr(doc.Info.Title)
        sm.Version = safeStr(doc.Info.Version)
        sm.Description = safeStr(doc.Info.Description)
    }
    for _, s := range doc.Servers {
        if s == nil {
            continue
        }
        sm.Servers = append(sm.Servers, Server{URL: safeStr(s.URL), Description: safeStr(s.Description)})
    }

    if doc.Components != nil {
        for name, ref := range doc.Components.Schemas {
            sor := toSchemaOrRef(ref)
            if sor == nil {
                continue
            }
            if sor.Ref != nil {
                // Alias entry; keep the name so it is still declared.
                sm.Schemas[name] = Schema{Name: name}
                continue
            }
            schema := *sor.Schema
            schema.Name = name
            sm.Schemas[name] = schema
        }
    }

    pathKeys := make([]string, 0, len(doc.Paths))
    for p := range doc.Paths {
        pathKeys = append(pathKeys, p)
    }
    sort.Strings(pathKeys)

    for _, p := range pathKeys {
        item := doc.Paths[p]
        if item == nil || !cfg.allowPath(p) {
            continue
        }
        // Path-level parameters first, overridden by operation-level ones.
        baseParams := make(map[string]*ParameterModel)
        for _, pref := range item.Parameters {
            if pm := toParameterModel(pref); pm != nil {
                baseParams[paramKey(pm.In, pm.Name)] = pm
            }
        }

        pm := PathModel{Path: p, Operations: map[HttpMethod]*OperationModel{}}
        for _, m := range methodOrder {
            op := operationFor(item, m)
            if op == nil || !cfg.allowMethod(m) {
                continue
            }
            tags := make([]string, 0, len(op.Tags))
            for _, t := range op.Tags {
                if t = strings.TrimSpace(t); t != "" {
                    tags = append(tags, t)
                }
            }
            if !allowByTags(tags, cfg) {
                continue
            }
            pm.Operations[m] = &OperationModel{
                OperationID: safeStr(op.OperationID),
                Method:      m,
                Path:        p,
                Summary:     safeStr(op.Summary),
                Description: safeStr(op.Description),
                Tags:        tags,
                Parameters:  mergeParameters(baseParams, op.Parameters),
                RequestBody: toRequestBodyModel(op.RequestBody),
                Responses:   toResponseModels(op.Responses),
            }
        }
        if len(pm.Operations) > 0 {
            sm.Paths = append(sm.Paths, pm)
        }
    }

    sm.Tags = collectSortedTags(sm.Paths)
    return sm, nil
}

func (c *buildConfig) allowMethod(m HttpMethod) bool {
    if len(c.methods) == 0 {
        return true
    }
    _, ok := c.methods[m]
    return ok
}

func (c *buildConfig) allowPath(p string) bool {
    if len(c.pathRes) == 0 {
        return true
    }
    for _, re := range c.pathRes {
        if re.MatchString(p) {
            return true
        }
    }
    return false
}

func allowByTags(tags []string, cfg *buildConfig) bool {
    if len(cfg.includeTags) > 0 {
        ok := false
        for _, t := range tags {
            if _, yes := cfg.includeTags[t]; yes {
                ok = true
                break
            }
        }
        if !ok {
            return false
        }
    }
    for _, t := range tags {
        if _, blocked := cfg.excludeTags[t]; blocked {
            return false
        }
    }
    return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func mergeParameters(base map[string]*ParameterModel, refs openapi3.Parameters) []ParameterModel {
    merged := make(map[string]*ParameterModel, len(base)+len(refs))
    for k, v := range base {
        merged[k] = v
    }
    for _, pref := range refs {
        if pm := toParameterModel(pref); pm != nil {
            merged[paramKey(pm.In, pm.Name)] = pm
        }
    }
    if len(merged) == 0 {
        return nil
    }
    params := make([]ParameterModel, 0, len(merged))
    for _, v := range merged {
        params = append(params, *v)
    }
    sort.Slice(params, func(i, j int) bool {
        if params[i].In == params[j].In {
            return params[i].Name < params[j].Name
        }
        return params[i].In < params[j].In
    })
    return params
}

func toParameterModel(pref *openapi3.ParameterRef) *ParameterModel {
    if pref == nil || pref.Value == nil {
        return nil
    }
    p := pref.Value
    pm := &ParameterModel{
        Name:     safeStr(p.Name),
        In:       safeStr(p.In),
        Required: p.Required,
    }
    if p.Schema != nil {
        pm.Schema = toSchemaOrRef(p.Schema)
    }
    return pm
}

func toRequestBodyModel(ref *openapi3.RequestBodyRef) *RequestBodyModel {
    if ref == nil || ref.Value == nil {
        return nil
    }
    return &RequestBodyModel{
        Required: ref.Value.Required,
        Content:  toMediaList(ref.Value.Content),
    }
}

func toResponseModels(responses openapi3.Responses) []ResponseModel {
    if len(responses) == 0 {
        return nil
    }
    codes := make([]string, 0, len(responses))
    for code := range responses {
        codes = append(codes, code)
    }
    sort.Strings(codes)
    out := make([]ResponseModel, 0, len(codes))
    for _, code := range codes {
        rref := responses[code]
        if rref == nil || rref.Value == nil {
            continue
        }
        desc := ""
        if rref.Value.Description != nil {
            desc = *rref.Value.Description
        }
        out = append(out, ResponseModel{
            Status:      code,
            Description: safeStr(desc),
            Content:     toMediaList(rref.Value.Content),
        })
    }
    return out
}

func toMediaList(content openapi3.Content) []Media {
    if len(content) == 0 {
        return nil
    }
    keys := make([]string, 0, len(content))
    for k := range content {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    out := make([]Media, 0, len(keys))
    for _, mime := range keys {
        mt := content[mime]
        if mt == nil {
            continue
        }
        out = append(out, Media{Mime: mime, Schema: toSchemaOrRef(mt.Schema)})
    }
    return out
}

// toSchemaOrRef keeps $ref edges as references so recursive component graphs
// stay finite; only inline schemas are expanded.
func toSchemaOrRef(ref *openapi3.SchemaRef) *SchemaOrRef {
    if ref == nil {
        return nil
    }
    if ref.Ref != "" {
        return &SchemaOrRef{Ref: &SchemaRef{Ref: ref.Ref}}
    }
    if ref.Value == nil {
        return &SchemaOrRef{Schema: &Schema{}}
    }
    v := ref.Value
    s := &Schema{
        Type:        safeStr(v.Type),
        Description: safeStr(v.Description),
        Format:      safeStr(v.Format),
        Required:    append([]string(nil), v.Required...),
    }
    if len(v.Enum) > 0 {
        s.Enum = append([]any(nil), v.Enum...)
    }
    if v.Items != nil {
        s.Items = toSchemaOrRef(v.Items)
    }
    if len(v.Properties) > 0 {
        s.Properties = make(map[string]*SchemaOrRef, len(v.Properties))
        for name, p := range v.Properties {
            s.Properties[name] = toSchemaOrRef(p)
        }
    }
    for _, r := range v.AllOf {
        s.AllOf = append(s.AllOf, toSchemaOrRef(r))
    }
    for _, r := range v.AnyOf {
        s.AnyOf = append(s.AnyOf, toSchemaOrRef(r))
    }
    for _, r := range v.OneOf {
        s.OneOf = append(s.OneOf, toSchemaOrRef(r))
    }
    return &SchemaOrRef{Schema: s}
}

func collectSortedTags(paths []PathModel) []string {
    set := make(map[string]struct{})
    for _, p := range paths {
        for _, op := range p.Operations {
            for _, t := range op.Tags {
                set[t] = struct{}{}
            }
        }
    }
    if len(set) == 0 {
        return nil
    }
    out := make([]string, 0, len(set))
    for t := range set {
        out = append(out, t)
    }
    sort.Strings(out)
    return out
}
