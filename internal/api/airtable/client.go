package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/Guessometer/internal/platform/http"
	"github.com/Alias1177/Guessometer/internal/resolution"
	"github.com/Alias1177/Guessometer/models"
)

// Airtable column names
const (
	FieldPredictionText   = "Prediction Text"
	FieldConfidence       = "Confidence %"
	FieldCategory         = "Category"
	FieldPrivacy          = "Privacy"
	FieldPredictionDate   = "Prediction Date"
	FieldRemindDate       = "Remind Date"
	FieldOutcomeKnown     = "Outcome Known?"
	FieldPredictedOutcome = "Predicted Outcome"
	FieldActualOutcome    = "Actual Outcome"
	FieldUser             = "User"

	privacyPublic  = "Public"
	privacyPrivate = "Private"
	dateLayout     = "2006-01-02"
)

// Record is a single Airtable row
type Record struct {
	ID          string                 `json:"id,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
	CreatedTime string                 `json:"createdTime,omitempty"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Client is the Airtable REST client
type Client struct {
	baseURL    string
	token      string
	table      string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Airtable client
type ClientOptions struct {
	BaseID          string
	Token           string
	Production      bool
	BaseURL         string // overrides https://api.airtable.com/v0
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new Airtable client
func NewClient(options ClientOptions) *Client {
	base := options.BaseURL
	if base == "" {
		base = "https://api.airtable.com/v0"
	}

	table := "Predictions"
	if options.Production {
		table = "Production"
	}

	return &Client{
		baseURL: fmt.Sprintf("%s/%s", base, url.PathEscape(options.BaseID)),
		token:   options.Token,
		table:   table,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "airtable_client").Str("table", table).Logger(),
	}
}

// Table returns the table the client writes to
func (c *Client) Table() string {
	return c.table
}

// ListRecords fetches every record of the table, following pagination
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	offset := ""
	for {
		endpoint := c.tableURL("")
		if offset != "" {
			endpoint += "?offset=" + url.QueryEscape(offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}
		records = append(records, page.Records...)

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.logger.Debug().Int("count", len(records)).Msg("Fetched records")
	return records, nil
}

// CreatePrediction mirrors a new prediction and returns the created record
func (c *Client) CreatePrediction(ctx context.Context, p models.Prediction) (*Record, error) {
	predictionDate := p.PredictionDate
	if predictionDate.IsZero() {
		predictionDate = time.Now()
	}

	fields := map[string]interface{}{
		FieldPredictionText:   p.PredictionText,
		FieldConfidence:       p.ConfidenceLevel,
		FieldCategory:         p.Category,
		FieldPrivacy:          privacy(p.IsPublic),
		FieldPredictionDate:   predictionDate.UTC().Format(dateLayout),
		FieldPredictedOutcome: resolution.Affirmative,
	}
	known, actual := resolution.Markers(p.Outcome)
	fields[FieldOutcomeKnown] = known
	if actual != "" {
		fields[FieldActualOutcome] = actual
	}

	var created Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(""), Record{Fields: fields}, &created); err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	return &created, nil
}

// UpdatePrediction patches the outcome and confidence of a mirrored prediction
func (c *Client) UpdatePrediction(ctx context.Context, recordID string, upd models.PredictionUpdate) (*Record, error) {
	fields := map[string]interface{}{}
	if upd.Outcome != nil {
		known, actual := resolution.Markers(*upd.Outcome)
		fields[FieldOutcomeKnown] = known
		if actual != "" {
			fields[FieldActualOutcome] = actual
		}
	}
	if upd.ConfidenceLevel != nil {
		fields[FieldConfidence] = *upd.ConfidenceLevel
	}
	if upd.IsPublic != nil {
		fields[FieldPrivacy] = privacy(*upd.IsPublic)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var updated Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL(recordID), Record{Fields: fields}, &updated); err != nil {
		return nil, fmt.Errorf("updating record %s: %w", recordID, err)
	}
	return &updated, nil
}

// DeletePrediction removes a mirrored prediction
func (c *Client) DeletePrediction(ctx context.Context, recordID string) error {
	if err := c.do(ctx, http.MethodDelete, c.tableURL(recordID), nil, nil); err != nil {
		return fmt.Errorf("deleting record %s: %w", recordID, err)
	}
	return nil
}

func (c *Client) tableURL(recordID string) string {
	u := c.baseURL + "/" + url.PathEscape(c.table)
	if recordID != "" {
		u += "/" + url.PathEscape(recordID)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
	}

	c.logger.Debug().Str("method", method).Str("url", endpoint).Msg("Airtable request")

	resp, err := c.httpClient.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

func privacy(public bool) string {
	if public {
		return privacyPublic
	}
	return privacyPrivate
}
