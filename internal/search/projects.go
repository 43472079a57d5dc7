// internal/search/projects.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"site-analytics/internal/common/errors"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const projectMapping = `{
	"mappings": {
		"properties": {
			"name":          {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"description":   {"type": "text"},
			"target_area":   {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"industry_type": {"type": "keyword"},
			"status":        {"type": "keyword"},
			"postal_code":   {"type": "keyword"},
			"created_at":    {"type": "date"}
		}
	}
}`

// ProjectQuery narrows a full-text search.
type ProjectQuery struct {
	Text         string
	Status       string
	IndustryType string
	Size         int
}

type projectDoc struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	TargetArea   string `json:"target_area"`
	IndustryType string `json:"industry_type"`
	Status       string `json:"status"`
	PostalCode   string `json:"postal_code,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// ProjectIndex keeps a searchable copy of projects in Elasticsearch.
type ProjectIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewProjectIndex(client *elasticsearch.Client, index string, log logger.Logger) *ProjectIndex {
	return &ProjectIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping when missing.
func (p *ProjectIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.client.Indices.Exists([]string{p.index}, p.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSearchIndexFailedError(p.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = p.client.Indices.Create(p.index,
		p.client.Indices.Create.WithBody(strings.NewReader(projectMapping)),
		p.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.NewSearchIndexFailedError(p.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchIndexFailedError(p.index, responseError(res))
	}

	p.logger.Info("search index created", nil)
	return nil
}

func (p *ProjectIndex) Index(ctx context.Context, project *models.Project) error {
	body, err := json.Marshal(projectDoc{
		Name:         project.Name,
		Description:  project.Description,
		TargetArea:   project.TargetArea,
		IndustryType: project.IndustryType,
		Status:       string(project.Status),
		PostalCode:   project.PostalCode,
		CreatedAt:    project.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return errors.NewSearchIndexFailedError(p.index, err)
	}

	res, err := p.client.Index(p.index, bytes.NewReader(body),
		p.client.Index.WithDocumentID(project.ID),
		p.client.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.NewSearchIndexFailedError(p.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchIndexFailedError(p.index, responseError(res))
	}
	return nil
}

// Delete removes a document. A missing document is not an error.
func (p *ProjectIndex) Delete(ctx context.Context, id string) error {
	res, err := p.client.Delete(p.index, id, p.client.Delete.WithContext(ctx))
	if err != nil {
		return errors.NewSearchIndexFailedError(p.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.NewSearchIndexFailedError(p.index, responseError(res))
	}
	return nil
}

// SearchIDs returns matching project ids ordered by relevance.
func (p *ProjectIndex) SearchIDs(ctx context.Context, q ProjectQuery) ([]string, error) {
	size := q.Size
	if size <= 0 {
		size = 100
	}

	body, err := json.Marshal(buildProjectQuery(q))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(p.index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(p.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(p.index, responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(p.index, err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}

	p.logger.Debug("project search", map[string]interface{}{
		"query": q.Text,
		"hits":  parsed.Hits.Total.Value,
	})
	return ids, nil
}

func buildProjectQuery(q ProjectQuery) map[string]interface{} {
	must := []interface{}{}
	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"name^3", "target_area^2", "description"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	filter := []interface{}{}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status": q.Status},
		})
	}
	if q.IndustryType != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"industry_type": q.IndustryType},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"_source": false,
		"query":   map[string]interface{}{"bool": boolQuery},
	}
}

func responseError(res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(raw)))
}
