package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/config"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

const IndexName = "services"

type Document struct {
	ID            uint               `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	ServiceTypeID uint               `json:"service_type_id"`
	ProviderID    uint               `json:"provider_id"`
	Variations    []VariationSummary `json:"variations"`
}

type VariationSummary struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func DocumentOf(s *models.Service) Document {
	doc := Document{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		ServiceTypeID: s.ServiceTypeID,
		ProviderID:    s.ProviderID,
	}
	for _, v := range s.Variations {
		doc.Variations = append(doc.Variations, VariationSummary{Name: v.Name, Price: v.Price})
	}
	return doc
}

type Query struct {
	Text          string
	ServiceTypeID uint
	Size          int
}

// Index is eventually consistent with the database. Writes never fail the
// caller and a failed search reports ok=false, meaning "do not narrow".
type Index interface {
	IndexService(ctx context.Context, doc Document)
	DeleteService(ctx context.Context, id uint)
	Search(ctx context.Context, q Query) (ids []uint, ok bool)
}

type ElasticIndex struct {
	es    *elasticsearch.Client
	index string
	log   *zap.Logger
}

// NewElasticClient returns nil when search is disabled.
func NewElasticClient(cfg *config.Config, log *zap.Logger) *elasticsearch.Client {
	if !cfg.ElasticEnabled {
		log.Info("elasticsearch disabled")
		return nil
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
	})
	if err != nil {
		log.Warn("elasticsearch client failed, search falls back to database", zap.Error(err))
		return nil
	}
	return es
}

func NewElasticIndex(es *elasticsearch.Client, log *zap.Logger) *ElasticIndex {
	return &ElasticIndex{es: es, index: IndexName, log: log}
}

func (i *ElasticIndex) IndexService(ctx context.Context, doc Document) {
	if i.es == nil {
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		i.log.Warn("search encode failed", zap.Uint("service_id", doc.ID), zap.Error(err))
		return
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		i.log.Warn("search index failed", zap.Uint("service_id", doc.ID), zap.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.log.Warn("search index rejected", zap.Uint("service_id", doc.ID), zap.String("status", res.Status()))
	}
}

func (i *ElasticIndex) DeleteService(ctx context.Context, id uint) {
	if i.es == nil {
		return
	}

	res, err := i.es.Delete(
		i.index,
		strconv.FormatUint(uint64(id), 10),
		i.es.Delete.WithContext(ctx),
	)
	if err != nil {
		i.log.Warn("search delete failed", zap.Uint("service_id", id), zap.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		i.log.Warn("search delete rejected", zap.Uint("service_id", id), zap.String("status", res.Status()))
	}
}

func (i *ElasticIndex) Search(ctx context.Context, q Query) ([]uint, bool) {
	if i.es == nil || q.Text == "" {
		return nil, false
	}

	size := q.Size
	if size <= 0 {
		size = 100
	}

	body, err := json.Marshal(buildQuery(q, size))
	if err != nil {
		return nil, false
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		i.log.Warn("search failed", zap.String("query", q.Text), zap.Error(err))
		return nil, false
	}
	defer res.Body.Close()

	if res.IsError() {
		i.log.Warn("search rejected", zap.String("query", q.Text), zap.String("status", res.Status()))
		return nil, false
	}

	ids, err := decodeHits(res.Body)
	if err != nil {
		i.log.Warn("search response unreadable", zap.Error(err))
		return nil, false
	}
	return ids, true
}

func buildQuery(q Query, size int) map[string]any {
	must := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":     q.Text,
				"fields":    []string{"name^3", "description"},
				"fuzziness": "AUTO",
			},
		},
	}

	boolQuery := map[string]any{"must": must}
	if q.ServiceTypeID != 0 {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"service_type_id": q.ServiceTypeID}},
		}
	}

	return map[string]any{
		"size":    size,
		"_source": false,
		"query":   map[string]any{"bool": boolQuery},
	}
}

func decodeHits(r io.Reader) ([]uint, error) {
	var payload struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad hit id %q: %w", h.ID, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

var _ Index = (*ElasticIndex)(nil)
