package registrytest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// SetOpenAPI serves doc as the schema of a record and derives the record's
// endpoint names from its operations, the way the registry service does.
// Each operation is named by its operationId, or "METHOD /path" when it has
// none. Names are ordered by path, then method.
func (s *Server) SetOpenAPI(id int, contentType, doc string) error {
	names, err := OperationNames([]byte(doc))
	if err != nil {
		return err
	}
	s.SetSchema(id, contentType, doc)
	s.SetEndpoints(id, names...)
	return nil
}

// OperationNames parses an OpenAPI 3 document (JSON or YAML) and lists its
// operations.
func OperationNames(data []byte) ([]string, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if doc.Paths == nil {
		return []string{}, nil
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	slices.Sort(keys)

	names := []string{}
	for _, p := range keys {
		ops := paths[p].Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		slices.Sort(methods)
		for _, m := range methods {
			if opID := ops[m].OperationID; opID != "" {
				names = append(names, opID)
				continue
			}
			names = append(names, strings.ToUpper(m)+" "+p)
		}
	}
	return names, nil
}
