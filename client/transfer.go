package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TransferService handles CSV import and export.
type TransferService struct {
	c *Client
}

// Import uploads a CSV file. With dryRun the rows are validated but not saved.
// A rejected file returns an *APIError whose Rows lists every invalid row.
func (s *TransferService) Import(ctx context.Context, csv io.Reader, dryRun bool) (*ImportResult, error) {
	path := "/api/v1/buyers/import"
	if dryRun {
		path += "?dry_run=true"
	}

	resp, err := s.c.send(ctx, http.MethodPost, path, "text/csv", csv)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Template writes the import template CSV to w.
func (s *TransferService) Template(ctx context.Context, w io.Writer) error {
	_, err := s.stream(ctx, "/api/v1/buyers/import/template", w)
	return err
}

// Export streams the buyers matching opts as CSV to w and returns the bytes written.
// Paging fields of opts are ignored.
func (s *TransferService) Export(ctx context.Context, opts *ListOptions, w io.Writer) (int64, error) {
	params := opts.values()
	params.Del("page")
	params.Del("page_size")

	path := "/api/v1/buyers/export"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return s.stream(ctx, path, w)
}

func (s *TransferService) stream(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := s.c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read export: %w", err)
	}
	return n, nil
}
