package taxii

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stixgate/internal/infrastructure/metrics"
	"stixgate/internal/shared/constants"
	"stixgate/internal/shared/logger"
)

const (
	defaultRequestTimeout = 60 * time.Second
	// Maximum response body size for TAXII endpoints (32MB). Envelopes are
	// bounded by the page limit but servers are not trusted to honor it.
	maxResponseSize = 32 << 20
)

// Client is a TAXII 2.1 pull client bound to one feed's authenticator.
type Client struct {
	httpClient *http.Client
	auth       Authenticator
	logger     logger.Interface
}

// NewClient creates a TAXII client. timeout zero selects the default.
func NewClient(auth Authenticator, timeout time.Duration, log logger.Interface) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		auth:   auth,
		logger: log,
	}
}

// Discover fetches the discovery document at the given URL.
func (c *Client) Discover(ctx context.Context, discoveryURL string) (*Discovery, error) {
	var out Discovery
	if err := c.getJSON(ctx, discoveryURL, constants.ContentTypeTAXII, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections fetches all collections under an API root.
func (c *Client) ListCollections(ctx context.Context, apiRoot string) ([]Collection, error) {
	endpoint := joinPath(apiRoot, "collections")

	var out collectionsResponse
	if err := c.getJSON(ctx, endpoint, constants.ContentTypeTAXII, nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// GetObjects fetches one page of objects from a collection. The returned
// page carries the envelope's more flag and the server's date-added bounds.
func (c *Client) GetObjects(ctx context.Context, apiRoot, collectionID string, params GetObjectsParams) (*Page, error) {
	endpoint := joinPath(apiRoot, "collections", collectionID, "objects")

	query := url.Values{}
	if !params.AddedAfter.IsZero() {
		query.Set("added_after", params.AddedAfter.UTC().Format(time.RFC3339Nano))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	// Object payloads are served under the stix media type; only the
	// discovery and collection endpoints use the taxii one.
	var page Page
	err := c.getJSON(ctx, endpoint, constants.ContentTypeSTIX, query, &page.Envelope, func(header http.Header) {
		page.DateAddedFirst = parseHeaderTime(header.Get(constants.HeaderDateAddedFirst))
		page.DateAddedLast = parseHeaderTime(header.Get(constants.HeaderDateAddedLast))
	})
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// getJSON performs an authenticated GET and decodes the response body.
// onHeader, when set, observes response headers before the body is decoded.
func (c *Client) getJSON(ctx context.Context, endpoint, accept string, query url.Values, out any, onHeader func(http.Header)) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	if err := c.auth.Apply(req); err != nil {
		return fmt.Errorf("failed to apply authentication: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TaxiiRequests.WithLabelValues("transport_error").Inc()
		return newTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		metrics.TaxiiRequests.WithLabelValues(fmt.Sprintf("status_%d", resp.StatusCode)).Inc()
		c.logger.Warnw("taxii request returned unexpected status",
			"endpoint", endpoint,
			"status", resp.StatusCode,
		)
		return newStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if onHeader != nil {
		onHeader(resp.Header)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		metrics.TaxiiRequests.WithLabelValues("decode_error").Inc()
		return newDecodeError(err)
	}

	metrics.TaxiiRequests.WithLabelValues("ok").Inc()
	return nil
}

func joinPath(base string, parts ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, p := range parts {
		out = out + "/" + strings.Trim(p, "/")
	}
	return out + "/"
}

func parseHeaderTime(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
