package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
)

// List returns a page of accounts for the admin listing, straight from the
// store.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]*entity.Account, int, error) {
	return s.Repo.List(ctx, f)
}

// Remove deletes an account. Deletion is an administrative operation; the
// lifecycle itself never deletes records.
func (s *Service) Remove(ctx context.Context, accountID string) error {
	if err := s.Repo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	s.deindexAccount(ctx, accountID)
	return nil
}

// indexAccount mirrors the safe account projection into Elasticsearch.
// Indexing is best-effort: failures are logged and never surface to the
// lifecycle operation that triggered them. Secrets are never indexed.
func (s *Service) indexAccount(ctx context.Context, a *entity.Account) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         a.ID,
		"email":      a.Email,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"city":       a.City,
		"role":       a.Role,
		"is_active":  a.IsActive,
		"created_at": a.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: a.ID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("account_id", a.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("account_id", a.ID).Warn("es index response error")
	}
}

func (s *Service) deindexAccount(ctx context.Context, accountID string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: accountID}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("account_id", accountID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query over email and names in the accounts
// index. Returns the raw projections; it is only exposed to admins.
func (s *Service) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
