// attribute/ldap.go

package attribute

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ldap/ldap/v3"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"

	"github.com/arbiterhq/arbiter/model"
)

// LDAPConfig holds the connection and search settings for an LDAP
// backed provider.
type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	// IDAttribute is the entry attribute matched against the entity id,
	// "uid" when empty.
	IDAttribute string
	// Attributes limits which entry attributes are fetched; empty means
	// all user attributes.
	Attributes []string
}

// LDAPProvider resolves attributes from a directory entry found by a
// subtree search on the id attribute. The connection is established
// lazily and reused across lookups.
type LDAPProvider struct {
	category model.Category
	name     string
	config   LDAPConfig

	mu   sync.Mutex
	conn *ldap.Conn
}

func NewLDAPProvider(category model.Category, name string, config LDAPConfig) *LDAPProvider {
	if config.IDAttribute == "" {
		config.IDAttribute = "uid"
	}
	return &LDAPProvider{
		category: category,
		name:     name,
		config:   config,
	}
}

func (p *LDAPProvider) Category() model.Category { return p.category }
func (p *LDAPProvider) Name() string             { return p.name }

func (p *LDAPProvider) SupportsAttribute(attributeID string) bool {
	if len(p.config.Attributes) == 0 {
		return true
	}
	for _, a := range p.config.Attributes {
		if a == attributeID {
			return true
		}
	}
	return false
}

func (p *LDAPProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	conn, err := p.connection()
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("(%s=%s)", p.config.IDAttribute, ldap.EscapeFilter(id))
	result, err := conn.Search(ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, 0, false,
		filter,
		p.config.Attributes,
		nil,
	))
	if err != nil {
		p.dropConnection()
		return nil, fmt.Errorf("ldap search for %q failed: %w", id, err)
	}
	if len(result.Entries) == 0 {
		return map[string]any{}, nil
	}

	entry := result.Entries[0]
	attrs := make(map[string]any, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		if len(attr.Values) == 1 {
			attrs[attr.Name] = attr.Values[0]
		} else {
			attrs[attr.Name] = append([]string(nil), attr.Values...)
		}
	}
	return attrs, nil
}

// Close releases the directory connection, if any.
func (p *LDAPProvider) Close() {
	p.dropConnection()
}

func (p *LDAPProvider) connection() (*ldap.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := ldap.DialURL(p.config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to LDAP: %v", arbiter_errors.ErrProviderUnavailable, err)
	}
	if p.config.BindDN != "" {
		if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: failed to bind: %v", arbiter_errors.ErrProviderUnavailable, err)
		}
	}
	p.conn = conn
	return conn, nil
}

func (p *LDAPProvider) dropConnection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
