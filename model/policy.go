// model/policy.go

package model

import (
	"encoding/json"
	"fmt"
)

// Effect is the outcome a policy contributes when it applies.
type Effect string

const (
	EffectPermit Effect = "Permit"
	EffectDeny   Effect = "Deny"
)

// ABACPolicy is a single attribute-based policy. An absent Target makes
// the policy applicable to every request; an absent Condition is
// treated as always true.
type ABACPolicy struct {
	ID          string         `json:"id" validate:"required"`
	Version     string         `json:"version,omitempty"`
	Description string         `json:"description,omitempty"`
	Effect      Effect         `json:"effect" validate:"required,oneof=Permit Deny"`
	Target      *Target        `json:"target,omitempty"`
	Condition   Condition      `json:"condition,omitempty"`
	Priority    int            `json:"priority,omitempty" validate:"gte=0"`
	Obligations []Obligation   `json:"obligations,omitempty"`
	Advice      []Advice       `json:"advice,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Target gates applicability per request category. Each present entry
// must evaluate true for the policy to be considered at all.
type Target struct {
	Subject     Condition `json:"subject,omitempty"`
	Resource    Condition `json:"resource,omitempty"`
	Action      Condition `json:"action,omitempty"`
	Environment Condition `json:"environment,omitempty"`
}

// Obligation is an action the caller must perform when the matching
// policy's effect applies.
type Obligation struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Advice is a non-binding suggestion attached to a matching policy.
type Advice struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (p *ABACPolicy) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID          string          `json:"id"`
		Version     string          `json:"version"`
		Description string          `json:"description"`
		Effect      Effect          `json:"effect"`
		Target      *Target         `json:"target"`
		Condition   json.RawMessage `json:"condition"`
		Priority    int             `json:"priority"`
		Obligations []Obligation    `json:"obligations"`
		Advice      []Advice        `json:"advice"`
		Metadata    map[string]any  `json:"metadata"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.ID = a.ID
	p.Version = a.Version
	p.Description = a.Description
	p.Effect = a.Effect
	p.Target = a.Target
	p.Priority = a.Priority
	p.Obligations = a.Obligations
	p.Advice = a.Advice
	p.Metadata = a.Metadata
	p.Condition = nil
	if len(a.Condition) > 0 && string(a.Condition) != "null" {
		cond, err := UnmarshalCondition(a.Condition)
		if err != nil {
			return fmt.Errorf("policy %q condition: %w", a.ID, err)
		}
		p.Condition = cond
	}
	return nil
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("target must be a JSON object: %w", err)
	}
	for key, raw := range fields {
		if string(raw) == "null" {
			continue
		}
		cond, err := UnmarshalCondition(raw)
		if err != nil {
			return fmt.Errorf("target %q: %w", key, err)
		}
		switch Category(key) {
		case CategorySubject:
			t.Subject = cond
		case CategoryResource:
			t.Resource = cond
		case CategoryAction:
			t.Action = cond
		case CategoryEnvironment:
			t.Environment = cond
		default:
			return fmt.Errorf("target has unknown category %q", key)
		}
	}
	return nil
}

// Categories returns the present per-category target conditions keyed
// by category, in a fixed evaluation order.
func (t *Target) Categories() []TargetEntry {
	if t == nil {
		return nil
	}
	var entries []TargetEntry
	if t.Subject != nil {
		entries = append(entries, TargetEntry{CategorySubject, t.Subject})
	}
	if t.Resource != nil {
		entries = append(entries, TargetEntry{CategoryResource, t.Resource})
	}
	if t.Action != nil {
		entries = append(entries, TargetEntry{CategoryAction, t.Action})
	}
	if t.Environment != nil {
		entries = append(entries, TargetEntry{CategoryEnvironment, t.Environment})
	}
	return entries
}

// TargetEntry pairs a target condition with its category.
type TargetEntry struct {
	Category  Category
	Condition Condition
}
