// Package sheets pulls raw key rows from a published Google Sheet via
// its CSV export endpoint. Tabs are fetched in configured order and
// concatenated, matching the row order the key table grouping relies on.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
)

// RowSource is the spreadsheet collaborator boundary. Implementations
// return every raw row across all tabs, in source order.
type RowSource interface {
	Rows(ctx context.Context) ([]models.KeyRow, error)
}

// DefaultBaseURL is the Google Sheets document root; the per-tab CSV
// export lives under <base>/<sheet id>/gviz/tq.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// Client fetches sheet tabs as CSV over HTTP.
type Client struct {
	hc      *http.Client
	baseURL string
	sheetID string
	tabs    []string
}

// NewClient builds a CSV export client for the named sheet and tabs.
func NewClient(sheetID string, tabs []string, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		hc:      &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		sheetID: sheetID,
		tabs:    tabs,
	}
}

// Rows fetches every configured tab and concatenates their rows in tab
// order. Any tab failing to fetch or parse fails the whole load; the
// caller keeps its previous table in that case.
func (c *Client) Rows(ctx context.Context) ([]models.KeyRow, error) {
	if c.sheetID == "" {
		return nil, fmt.Errorf("sheet id not configured")
	}
	var out []models.KeyRow
	for _, tab := range c.tabs {
		rows, err := c.fetchTab(ctx, tab)
		if err != nil {
			return nil, fmt.Errorf("tab %q: %w", tab, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (c *Client) fetchTab(ctx context.Context, tab string) ([]models.KeyRow, error) {
	u := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s", c.baseURL, c.sheetID, url.QueryEscape(strings.TrimSpace(tab)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return ParseCSV(resp.Body)
}

// ParseCSV decodes a tab's CSV export. The header row names the columns
// (key / name_file / message_id, any order, case-insensitive); rows with
// an empty key or a non-positive message id are skipped with a warning.
func ParseCSV(r io.Reader) ([]models.KeyRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	keyIdx, nameIdx, msgIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "key":
			keyIdx = i
		case "name_file":
			nameIdx = i
		case "message_id":
			msgIdx = i
		}
	}
	if keyIdx < 0 || nameIdx < 0 || msgIdx < 0 {
		return nil, fmt.Errorf("missing required columns (have %v, need key/name_file/message_id)", header)
	}

	var rows []models.KeyRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if keyIdx >= len(rec) || nameIdx >= len(rec) || msgIdx >= len(rec) {
			logger.Warn("sheet_row_short", "line", line, "fields", len(rec))
			continue
		}
		key := strings.TrimSpace(rec[keyIdx])
		if key == "" {
			continue
		}
		msgID, err := strconv.ParseInt(strings.TrimSpace(rec[msgIdx]), 10, 64)
		if err != nil || msgID <= 0 {
			logger.Warn("sheet_row_bad_message_id", "line", line, "key", key, "value", rec[msgIdx])
			continue
		}
		rows = append(rows, models.KeyRow{
			Key:       key,
			Name:      strings.TrimSpace(rec[nameIdx]),
			MessageID: msgID,
		})
	}
	return rows, nil
}
