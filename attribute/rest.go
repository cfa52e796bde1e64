// attribute/rest.go

package attribute

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/arbiterhq/arbiter/model"
)

// RESTProvider fetches attributes from an HTTP endpoint returning a
// JSON object, GET {base}/{category}/{id}.
type RESTProvider struct {
	category model.Category
	name     string
	baseURL  string
	client   *http.Client
}

func NewRESTProvider(category model.Category, name, baseURL string, client *http.Client) *RESTProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTProvider{
		category: category,
		name:     name,
		baseURL:  baseURL,
		client:   client,
	}
}

func (p *RESTProvider) Category() model.Category { return p.category }
func (p *RESTProvider) Name() string             { return p.name }

func (p *RESTProvider) SupportsAttribute(attributeID string) bool { return true }

func (p *RESTProvider) GetAttributes(ctx context.Context, id string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", p.baseURL, p.category, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attribute endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]any{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attribute endpoint returned %s", resp.Status)
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("attribute endpoint returned invalid JSON: %w", err)
	}
	return attrs, nil
}
