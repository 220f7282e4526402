package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assembly-dashboard-be/pkg/dashboard/records"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PostgRESTClient reads tables through a Supabase REST endpoint.
type PostgRESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tracer  trace.Tracer
}

// NewPostgRESTClient creates a client for {baseURL}/rest/v1.
func NewPostgRESTClient(baseURL, apiKey string, timeout time.Duration) *PostgRESTClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PostgRESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("assembly-dashboard/datasource"),
	}
}

// Select issues GET {baseURL}/rest/v1/{table}. Any status >= 400 becomes a *FetchError carrying the body.
func (c *PostgRESTClient) Select(ctx context.Context, table string, params Params) ([]records.Record, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "postgrest.select", trace.WithAttributes(
		attribute.String("db.table", table),
		attribute.Int("db.limit", params.Limit),
		attribute.Int("db.offset", params.Offset),
	))
	defer span.End()

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, table, params.Values().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, &FetchError{Table: table, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", table, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &FetchError{Table: table, Status: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []records.Record
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	if rows == nil {
		rows = []records.Record{}
	}
	span.SetAttributes(attribute.Int("db.rows", len(rows)))
	return rows, nil
}
