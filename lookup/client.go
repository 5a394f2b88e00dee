// Package lookup fetches bank branch details for an IFSC code.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andys/ifsc_enricher/sheet"
	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound is returned when the service does not know the code.
	ErrNotFound = errors.New("ifsc not found")
	// ErrMalformedResponse is returned when the body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed lookup response")
)

// MaxResponseSize caps the body read from the service.
const MaxResponseSize = 1 << 20

// Client looks up IFSC codes against a REST endpoint of the form <base>/<code>.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets one with
// the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// URL returns the request URL for code.
func (c *Client) URL(code string) string {
	return c.baseURL + "/" + url.PathEscape(code)
}

// Lookup fetches the details of one code and returns the response fields in
// the order the service sent them.
func (c *Client) Lookup(ctx context.Context, code string) (*sheet.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(code), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: failed to read response: %w", code, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("lookup %s: %w", code, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("lookup %s: service returned status %d", code, resp.StatusCode)
	}

	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("lookup %s: %w: response larger than %d bytes", code, ErrMalformedResponse, MaxResponseSize)
	}
	return parseFields(code, body)
}

func parseFields(code string, body []byte) (*sheet.Row, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("lookup %s: %w: invalid JSON", code, ErrMalformedResponse)
	}
	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, fmt.Errorf("lookup %s: %w: expected an object", code, ErrMalformedResponse)
	}

	fields := sheet.NewRow()
	result.ForEach(func(key, value gjson.Result) bool {
		fields.Set(key.String(), fieldValue(value))
		return true
	})
	return fields, nil
}

// fieldValue converts a JSON value to a cell value. Nested arrays and
// objects are kept as their JSON text.
func fieldValue(v gjson.Result) interface{} {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return nil
	default:
		return v.Raw
	}
}
