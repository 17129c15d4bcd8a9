package gql

import (
	"context"
	"sync"

	"github.com/mark3labs/swagger2gql/internal/spec"
	"github.com/mark3labs/swagger2gql/internal/upstream"
)

func str() *spec.SchemaOrRef {
	return &spec.SchemaOrRef{Schema: &spec.Schema{Type: "string"}}
}

func boolean() *spec.SchemaOrRef {
	return &spec.SchemaOrRef{Schema: &spec.Schema{Type: "boolean"}}
}

func ref(name string) *spec.SchemaOrRef {
	return &spec.SchemaOrRef{Ref: &spec.SchemaRef{Ref: "#/components/schemas/" + name}}
}

func arrayOf(items *spec.SchemaOrRef) *spec.SchemaOrRef {
	return &spec.SchemaOrRef{Schema: &spec.Schema{Type: "array", Items: items}}
}

func jsonContent(s *spec.SchemaOrRef) []spec.Media {
	return []spec.Media{{Mime: spec.JSONMime, Schema: s}}
}

func ok200(s *spec.SchemaOrRef) []spec.ResponseModel {
	return []spec.ResponseModel{{Status: "200", Content: jsonContent(s)}}
}

func pathParam(name string) spec.ParameterModel {
	return spec.ParameterModel{Name: name, In: "path", Required: true, Schema: str()}
}

func path(p string, ops ...*spec.OperationModel) spec.PathModel {
	pm := spec.PathModel{Path: p, Operations: map[spec.HttpMethod]*spec.OperationModel{}}
	for _, op := range ops {
		op.Path = p
		pm.Operations[op.Method] = op
	}
	return pm
}

// usersModel is a small NestJS-style API: a self-referencing User output,
// a CreateUserDto input, and CRUD on /users.
func usersModel() *spec.ServiceModel {
	return &spec.ServiceModel{
		Title: "Users",
		Schemas: map[string]spec.Schema{
			"User": {
				Name:     "User",
				Type:     "object",
				Required: []string{"id", "name"},
				Properties: map[string]*spec.SchemaOrRef{
					"id":      str(),
					"name":    {Schema: &spec.Schema{Type: "string", Description: "Display name"}},
					"active":  boolean(),
					"manager": ref("User"),
					"tags":    arrayOf(str()),
				},
			},
			"CreateUserDto": {
				Name:     "CreateUserDto",
				Type:     "object",
				Required: []string{"name"},
				Properties: map[string]*spec.SchemaOrRef{
					"name": str(),
				},
			},
			"Audit": {
				Name:       "Audit",
				Type:       "object",
				Properties: map[string]*spec.SchemaOrRef{"at": str()},
			},
		},
		Paths: []spec.PathModel{
			path("/users",
				&spec.OperationModel{
					OperationID: "listUsers",
					Method:      spec.GET,
					Parameters:  []spec.ParameterModel{{Name: "limit", In: "query", Schema: &spec.SchemaOrRef{Schema: &spec.Schema{Type: "integer"}}}},
					Responses:   ok200(arrayOf(ref("User"))),
				},
				&spec.OperationModel{
					OperationID: "createUser",
					Method:      spec.POST,
					RequestBody: &spec.RequestBodyModel{Required: true, Content: jsonContent(ref("CreateUserDto"))},
					Responses:   ok200(ref("User")),
				},
			),
			path("/users/{id}",
				&spec.OperationModel{
					OperationID: "getUser",
					Method:      spec.GET,
					Parameters:  []spec.ParameterModel{pathParam("id")},
					Responses:   ok200(ref("User")),
				},
				&spec.OperationModel{
					OperationID: "deleteUser",
					Method:      spec.DELETE,
					Parameters:  []spec.ParameterModel{pathParam("id")},
				},
				&spec.OperationModel{
					OperationID: "updateUser",
					Method:      spec.PATCH,
					Parameters:  []spec.ParameterModel{pathParam("id")},
					RequestBody: &spec.RequestBodyModel{Content: jsonContent(ref("CreateUserDto"))},
					Responses:   ok200(ref("User")),
				},
			),
		},
	}
}

// recordingCaller captures upstream requests and replies with a fixed payload.
type recordingCaller struct {
	mu       sync.Mutex
	requests []upstream.Request
	reply    any
	err      error
}

func (c *recordingCaller) Call(ctx context.Context, req upstream.Request) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.reply, c.err
}
