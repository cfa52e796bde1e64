// attribute/neo4j.go

package attribute

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arbiterhq/arbiter/model"
)

// Neo4jProvider resolves an entity's attributes from the properties of
// a labeled node in a Neo4j graph. The node is matched on its "id"
// property.
type Neo4jProvider struct {
	driver   neo4j.Driver
	category model.Category
	name     string
	label    string
}

func NewNeo4jProvider(driver neo4j.Driver, category model.Category, name, label string) *Neo4jProvider {
	return &Neo4jProvider{
		driver:   driver,
		category: category,
		name:     name,
		label:    label,
	}
}

func (p *Neo4jProvider) Category() model.Category { return p.category }
func (p *Neo4jProvider) Name() string             { return p.name }

// SupportsAttribute always reports true: graph nodes carry arbitrary
// properties and the resolver merges whatever comes back.
func (p *Neo4jProvider) SupportsAttribute(attributeID string) bool { return true }

func (p *Neo4jProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	session := p.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		query := `MATCH (n:` + p.label + ` {id: $id}) RETURN n LIMIT 1`
		res, err := tx.Run(query, map[string]interface{}{"id": id})
		if err != nil {
			return nil, err
		}
		if res.Next() {
			node, ok := res.Record().Values[0].(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected record shape for %s %q", p.label, id)
			}
			return node.Props, nil
		}
		return nil, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j attribute lookup for %q failed: %w", id, err)
	}
	if result == nil {
		return map[string]any{}, nil
	}

	props := result.(map[string]interface{})
	attrs := make(map[string]any, len(props))
	for k, v := range props {
		if k == "id" {
			continue
		}
		attrs[k] = v
	}
	return attrs, nil
}
