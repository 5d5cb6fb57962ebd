package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
)

// Client talks to the external text-generation service that turns the
// ledgers into a plain-language summary. The call may be slow or fail;
// callers treat any error as recoverable and fall back to
// FallbackMessage(). Nothing here ever writes to the ledgers.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("SUMMARY_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("summary api base url is empty")
	}
	apiKey := strings.TrimSpace(os.Getenv("SUMMARY_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("summary api key is empty")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("SUMMARY_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "Authorization"
	}
	rateLimitPerMin := int64(10)
	if v := strings.TrimSpace(os.Getenv("SUMMARY_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

type summaryRequest struct {
	CashRecords []*models.CashRecord         `json:"cash_records"`
	Investments []*models.InvestmentMovement `json:"investments"`
	Bills       []*models.Bill               `json:"bills"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
	Text    string `json:"text"`
}

// Summarize sends the current ledgers and returns the generated text.
func (c *Client) Summarize(ctx context.Context, cash []*models.CashRecord, investments []*models.InvestmentMovement, bills []*models.Bill) (string, error) {
	<-c.limiter

	payload, err := json.Marshal(summaryRequest{
		CashRecords: cash,
		Investments: investments,
		Bills:       bills,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/summaries", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summary api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed summaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Summary != "" {
		return parsed.Summary, nil
	}
	if parsed.Text != "" {
		return parsed.Text, nil
	}
	return "", errors.New("summary api returned an empty summary")
}

// FallbackMessage is shown when the summary service is unavailable.
func FallbackMessage() string {
	return "The summary service is unavailable right now. Your figures are unaffected; please try again later."
}
