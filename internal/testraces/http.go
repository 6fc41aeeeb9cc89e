package testraces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/nircadb/internal/domain/types"
)

// client drives the import workflow over the HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// submitSheet opens an import for the generated sheet.
func (c *client) submitSheet(ctx context.Context, sheet []byte, division string) (types.ImportStatus, error) {
	url := fmt.Sprintf("%s/races?division=%s", c.baseURL, division)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(sheet))
	if err != nil {
		return types.ImportStatus{}, err
	}
	req.Header.Set("Content-Type", "text/csv")

	var status types.ImportStatus
	if err := c.do(req, http.StatusAccepted, &status); err != nil {
		return types.ImportStatus{}, err
	}
	return status, nil
}

// resolveAllNew marks every unresolved name as a new entity until the
// import is ready, then returns the final status.
func (c *client) resolveAllNew(ctx context.Context, status types.ImportStatus) (types.ImportStatus, error) {
	for status.Stage != "ready" {
		if len(status.Pending) == 0 {
			return status, fmt.Errorf("stage %q has no pending rows to resolve", status.Stage)
		}
		decisions := make([]types.Decision, len(status.Pending))
		for i, row := range status.Pending {
			decisions[i] = types.Decision{Index: row.Index, Action: "new"}
		}
		body, err := json.Marshal(decisions)
		if err != nil {
			return status, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/races/pending/resolve", bytes.NewReader(body))
		if err != nil {
			return status, err
		}
		req.Header.Set("Content-Type", "application/json")
		if err := c.do(req, http.StatusOK, &status); err != nil {
			return status, err
		}
	}
	return status, nil
}

// commit finalizes the pending import.
func (c *client) commit(ctx context.Context) (types.ImportReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/races/pending/commit", nil)
	if err != nil {
		return types.ImportReport{}, err
	}
	var report types.ImportReport
	if err := c.do(req, http.StatusOK, &report); err != nil {
		return types.ImportReport{}, err
	}
	return report, nil
}

// teamRankings fetches the ranked team table for the division.
func (c *client) teamRankings(ctx context.Context, division string) ([]types.TeamRow, error) {
	url := fmt.Sprintf("%s/rankings/teams?division=%s", c.baseURL, division)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	var rows []types.TeamRow
	if err := c.do(req, http.StatusOK, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: got %d want %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, wantStatus, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
