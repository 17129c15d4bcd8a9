package spec

// Internal Model (IM) definitions consumed by the GraphQL translator.
// The model is read-only once BuildServiceModel returns.

type HttpMethod string

const (
    GET     HttpMethod = "get"
    POST    HttpMethod = "post"
    PUT     HttpMethod = "put"
    DELETE  HttpMethod = "delete"
    PATCH   HttpMethod = "patch"
    HEAD    HttpMethod = "head"
    OPTIONS HttpMethod = "options"
    TRACE   HttpMethod = "trace"
)

// JSONMime is the only media type the translator reads schemas from.
const JSONMime = "application/json"

type ServiceModel struct {
    Title       string
    Version     string
    Description string
    Servers     []Server
    Tags        []string
    Paths       []PathModel       // sorted by Path
    Schemas     map[string]Schema // components.schemas by name
}

type Server struct {
    URL         string
    Description string
}

// PathModel is one REST path and the operations declared on it.
type PathModel struct {
    Path       string
    Operations map[HttpMethod]*OperationModel
}

// Operation returns the operation declared for m, or nil.
func (p PathModel) Operation(m HttpMethod) *OperationModel {
    if p.Operations == nil {
        return nil
    }
    return p.Operations[m]
}

type OperationModel struct {
    OperationID string
    Method      HttpMethod
    Path        string
    Summary     string
    Description string
    Tags        []string
    Parameters  []ParameterModel
    RequestBody *RequestBodyModel
    Responses   []ResponseModel
}

// Response returns the response declared for status, or nil.
func (o *OperationModel) Response(status string) *ResponseModel {
    for i := range o.Responses {
        if o.Responses[i].Status == status {
            return &o.Responses[i]
        }
    }
    return nil
}

type ParameterModel struct {
    Name     string
    In       string // path|query|header|cookie
    Required bool
    Schema   *SchemaOrRef
}

type RequestBodyModel struct {
    Content  []Media
    Required bool
}

type ResponseModel struct {
    Status      string // 200, 4xx, default
    Description string
    Content     []Media
}

type Media struct {
    Mime   string
    Schema *SchemaOrRef
}

// MediaFor returns the media entry for mime, if declared.
func MediaFor(content []Media, mime string) (*Media, bool) {
    for i := range content {
        if content[i].Mime == mime {
            return &content[i], true
        }
    }
    return nil, false
}

type Schema struct {
    Name        string
    Type        string
    Properties  map[string]*SchemaOrRef
    Required    []string
    Items       *SchemaOrRef
    AllOf       []*SchemaOrRef
    AnyOf       []*SchemaOrRef
    OneOf       []*SchemaOrRef
    Description string
    Enum        []any
    Format      string
}

// IsRequired reports whether prop is listed in the schema's required set.
func (s Schema) IsRequired(prop string) bool {
    for _, r := range s.Required {
        if r == prop {
            return true
        }
    }
    return false
}

// Composed reports whether the schema uses allOf/anyOf/oneOf.
func (s Schema) Composed() bool {
    return len(s.AllOf) > 0 || len(s.AnyOf) > 0 || len(s.OneOf) > 0
}

type SchemaRef struct{ Ref string }

type SchemaOrRef struct {
    Schema *Schema
    Ref    *SchemaRef
}
