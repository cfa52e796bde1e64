// model/request.go

// Package model defines the data types exchanged with the decision
// engine: access requests, policies, the condition tree, and decisions.
package model

import "time"

// Category identifies which part of a request an attribute belongs to.
type Category string

const (
	CategorySubject     Category = "subject"
	CategoryResource    Category = "resource"
	CategoryAction      Category = "action"
	CategoryEnvironment Category = "environment"
)

// Request describes who wants to do what to which resource, and under
// which environmental circumstances. Attribute values are scalars,
// times, or homogeneous arrays. The engine never mutates a Request it
// is handed; attribute enhancement works on a deep copy.
type Request struct {
	Subject     Subject     `json:"subject"`
	Resource    Resource    `json:"resource"`
	Action      Action      `json:"action"`
	Environment Environment `json:"environment,omitempty"`
}

type Subject struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Resource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Action struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Environment struct {
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Clone returns a deep copy of the request. Nested maps and slices are
// copied recursively; times and scalars are copied by value.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	return &Request{
		Subject: Subject{
			ID:         r.Subject.ID,
			Attributes: CopyAttributes(r.Subject.Attributes),
		},
		Resource: Resource{
			ID:         r.Resource.ID,
			Type:       r.Resource.Type,
			Attributes: CopyAttributes(r.Resource.Attributes),
		},
		Action: Action{
			ID:         r.Action.ID,
			Attributes: CopyAttributes(r.Action.Attributes),
		},
		Environment: Environment{
			Attributes: CopyAttributes(r.Environment.Attributes),
		},
	}
}

// CopyAttributes deep-copies an attribute map. A nil map stays nil so
// cloned requests marshal the same way as the original.
func CopyAttributes(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyAttributes(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []int:
		out := make([]int, len(val))
		copy(out, val)
		return out
	case []float64:
		out := make([]float64, len(val))
		copy(out, val)
		return out
	case time.Time:
		return val
	default:
		return v
	}
}
