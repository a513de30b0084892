package client

import (
	"context"
	"net/url"
	"strconv"
)

// BuyerService handles buyer CRUD and history.
type BuyerService struct {
	c *Client
}

// historyResponse wraps the paginated history response.
type historyResponse struct {
	History []HistoryEntry `json:"history"`
	HasMore bool           `json:"has_more"`
}

func (o *ListOptions) values() url.Values {
	params := url.Values{}
	if o == nil {
		return params
	}
	if o.Search != "" {
		params.Set("search", o.Search)
	}
	if o.City != "" {
		params.Set("city", string(o.City))
	}
	if o.PropertyType != "" {
		params.Set("propertyType", string(o.PropertyType))
	}
	if o.Status != "" {
		params.Set("status", string(o.Status))
	}
	if o.Timeline != "" {
		params.Set("timeline", string(o.Timeline))
	}
	if o.Page > 0 {
		params.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return params
}

// List returns one page of buyers, most recently updated first.
func (s *BuyerService) List(ctx context.Context, opts *ListOptions) (*BuyerPage, error) {
	var page BuyerPage
	if err := s.c.get(ctx, "/api/v1/buyers", opts.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns a buyer with its owner and recent history.
func (s *BuyerService) Get(ctx context.Context, id string) (*BuyerDetail, error) {
	var detail BuyerDetail
	if err := s.c.get(ctx, "/api/v1/buyers/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create creates a buyer owned by the signed-in user.
func (s *BuyerService) Create(ctx context.Context, req *CreateBuyerRequest) (*Buyer, error) {
	var b Buyer
	if err := s.c.post(ctx, "/api/v1/buyers", req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update applies a partial update. Set req.UpdatedAt to the value last read
// to have a concurrent change rejected with a conflict.
func (s *BuyerService) Update(ctx context.Context, id string, req *UpdateBuyerRequest) (*Buyer, error) {
	var b Buyer
	if err := s.c.put(ctx, "/api/v1/buyers/"+url.PathEscape(id), req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a buyer and its history.
func (s *BuyerService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/buyers/"+url.PathEscape(id), nil, nil)
}

// History returns a buyer's change history, newest first.
func (s *BuyerService) History(ctx context.Context, id string, limit, offset int) ([]HistoryEntry, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/v1/buyers/" + url.PathEscape(id) + "/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp historyResponse
	if err := s.c.get(ctx, path, nil, &resp); err != nil {
		return nil, false, err
	}
	return resp.History, resp.HasMore, nil
}
