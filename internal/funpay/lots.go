package funpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

type lotResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"description"`
}

func (l lotResponse) toDomain() domain.Lot {
	title := l.Desc
	if title == "" {
		title = l.Title
	}
	if title == "" {
		title = strconv.FormatInt(l.ID, 10)
	}
	return domain.Lot{ID: l.ID, Title: title}
}

// MySubcategoryLots lists the account's own lots in one subcategory.
func (c *Client) MySubcategoryLots(ctx context.Context, subcategoryID int64) ([]domain.Lot, error) {
	query := url.Values{"subcategory_id": {strconv.FormatInt(subcategoryID, 10)}}
	raw, err := c.get(ctx, "/api/lots/my", query)
	if err != nil {
		return nil, fmt.Errorf("list subcategory %d lots: %w", subcategoryID, err)
	}
	var lots []lotResponse
	if err := json.Unmarshal(raw, &lots); err != nil {
		return nil, fmt.Errorf("decode subcategory %d lots: %w", subcategoryID, err)
	}
	out := make([]domain.Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.toDomain())
	}
	return out, nil
}

type categoryResponse struct {
	ID            int64 `json:"id"`
	Subcategories []struct {
		ID   int64         `json:"id"`
		Lots []lotResponse `json:"lots"`
	} `json:"subcategories"`
}

// Categories returns the account's full category tree with lots, the fallback
// discovery path when the direct subcategory listing fails.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	raw, err := c.get(ctx, "/api/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var cats []categoryResponse
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]domain.Category, 0, len(cats))
	for _, cat := range cats {
		dc := domain.Category{ID: cat.ID}
		for _, sub := range cat.Subcategories {
			ds := domain.Subcategory{ID: sub.ID}
			for _, l := range sub.Lots {
				ds.Lots = append(ds.Lots, l.toDomain())
			}
			dc.Subcategories = append(dc.Subcategories, ds)
		}
		out = append(out, dc)
	}
	return out, nil
}

type lotFieldsResponse struct {
	LotID  int64             `json:"lot_id"`
	Active bool              `json:"active"`
	Fields map[string]string `json:"fields"`
}

// GetLotFields reads the editable field set of a lot, including its
// activation flag.
func (c *Client) GetLotFields(ctx context.Context, lotID int64) (*domain.LotFields, error) {
	raw, err := c.get(ctx, "/api/lots/"+strconv.FormatInt(lotID, 10)+"/fields", nil)
	if err != nil {
		return nil, fmt.Errorf("get lot %d fields: %w", lotID, err)
	}
	var lf lotFieldsResponse
	if err := json.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("decode lot %d fields: %w", lotID, err)
	}
	return &domain.LotFields{LotID: lf.LotID, Active: lf.Active, Fields: lf.Fields}, nil
}

// SaveLotFields writes a lot's field set back, persisting any activation
// change.
func (c *Client) SaveLotFields(ctx context.Context, fields *domain.LotFields) error {
	form := url.Values{
		"lot_id": {strconv.FormatInt(fields.LotID, 10)},
		"active": {strconv.FormatBool(fields.Active)},
	}
	for k, v := range fields.Fields {
		form.Set("fields["+k+"]", v)
	}
	if _, err := c.postForm(ctx, "/api/lots/save", form); err != nil {
		return fmt.Errorf("save lot %d: %w", fields.LotID, err)
	}
	return nil
}
