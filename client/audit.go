package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AuditService reads and prunes the server's audit log.
type AuditService struct {
	c *Client
}

// AuditQueryOptions filters an audit log query. Zero values are omitted and
// the server applies its defaults.
type AuditQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      time.Time
	Limit      int
	Offset     int
}

func (o *AuditQueryOptions) values() url.Values {
	v := url.Values{}
	if o == nil {
		return v
	}

	for key, val := range map[string]string{
		"entity_type": o.EntityType,
		"entity_id":   o.EntityID,
		"action":      o.Action,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}

	if !o.Since.IsZero() {
		v.Set("since", o.Since.UTC().Format(time.RFC3339))
	}

	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}

	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}

	return v
}

// AuditPage is one page of audit entries, newest first.
type AuditPage struct {
	Entries []AuditEntry `json:"data"`
	HasMore bool         `json:"has_more"`
}

// PurgeResult reports an audit purge.
type PurgeResult struct {
	Deleted       int `json:"deleted"`
	RetentionDays int `json:"retention_days"`
}

// Query returns one page of matching audit entries.
func (s *AuditService) Query(ctx context.Context, opts *AuditQueryOptions) (*AuditPage, error) {
	var page AuditPage
	if err := s.c.get(ctx, "/api/v1/audit", opts.values(), &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Walk calls fn for every matching entry, following pages from opts.Offset
// until the server reports no more. An error from fn stops the walk.
func (s *AuditService) Walk(ctx context.Context, opts *AuditQueryOptions, fn func(AuditEntry) error) error {
	q := AuditQueryOptions{}
	if opts != nil {
		q = *opts
	}

	for {
		page, err := s.Query(ctx, &q)
		if err != nil {
			return err
		}

		for _, e := range page.Entries {
			if err := fn(e); err != nil {
				return err
			}
		}

		if !page.HasMore || len(page.Entries) == 0 {
			return nil
		}

		q.Offset += len(page.Entries)
	}
}

// Purge deletes entries older than retentionDays. Zero lets the server
// apply its default retention.
func (s *AuditService) Purge(ctx context.Context, retentionDays int) (*PurgeResult, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}

	var res PurgeResult
	if err := s.c.del(ctx, "/api/v1/audit", params, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
