// internal/catalog/elasticsearch.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// TextSearch is the full-text university search over the Elasticsearch
// index. It is preferred over the Postgres substring match for live-search
// steps when the cluster is reachable.
type TextSearch struct {
	client *elasticsearch.Client
	index  string
}

func NewTextSearch(client *elasticsearch.Client, index string) *TextSearch {
	return &TextSearch{client: client, index: index}
}

func (t *TextSearch) SearchUniversities(ctx context.Context, query string, limit int) ([]CandidateUniversity, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^3", "coursesOffered^2", "country"},
				"type":   "best_fields",
			},
		},
	}

	raw, _ := json.Marshal(body)
	from := 0
	req := esapi.SearchRequest{
		Index: []string{t.index},
		Body:  strings.NewReader(string(raw)),
		From:  &from,
		Size:  &limit,
	}

	res, err := req.Do(ctx, t.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source PartialCandidate `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	partials := make([]PartialCandidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		partials = append(partials, hit.Source)
	}
	return NormalizeAll(partials), nil
}
