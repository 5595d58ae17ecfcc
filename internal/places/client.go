package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/observability"
)

const maxResponseBytes = 4 << 20

var (
	// ErrMissingToken indicates a bearer credential is required for the call.
	ErrMissingToken = errors.New("places api bearer token missing")
	// ErrMissingID indicates an update or lookup was issued without an identifier.
	ErrMissingID = errors.New("place id missing")
)

// APIError is returned when the places backend answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places api responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("places api responded with status %d: %s", e.StatusCode, e.Message)
}

// Config configures the places backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the places REST backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// New constructs a places client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("places base url must not be empty")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid places base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("places base url must use http or https")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		logger:  logger.With().Str("component", "places_client").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/spot-form-api/internal/places"),
	}, nil
}

// Create posts a new submission.
func (c *Client) Create(ctx context.Context, token string, draft models.SubmissionDraft) (models.Place, error) {
	return c.sendDraft(ctx, "create", http.MethodPost, "/api/places", token, draft)
}

// Update replaces the submission identified by id.
func (c *Client) Update(ctx context.Context, token, id string, draft models.SubmissionDraft) (models.Place, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Place{}, ErrMissingID
	}
	return c.sendDraft(ctx, "update", http.MethodPut, "/api/places/"+url.PathEscape(id), token, draft)
}

// ListByUser returns the submissions owned by userID. The call requires a bearer token.
func (c *Client) ListByUser(ctx context.Context, token, userID string) ([]models.Place, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingID
	}
	return c.list(ctx, "list_by_user", "/api/users/"+url.PathEscape(userID)+"/places", nil, token)
}

// ListByName returns the submissions filed under the submitter name.
func (c *Client) ListByName(ctx context.Context, token, name string) ([]models.Place, error) {
	query := url.Values{}
	query.Set("user", name)
	return c.list(ctx, "list_by_name", "/api/places", query, token)
}

func (c *Client) sendDraft(ctx context.Context, operation, method, path, token string, draft models.SubmissionDraft) (models.Place, error) {
	body, contentType, err := EncodeDraft(draft)
	if err != nil {
		return models.Place{}, err
	}

	payload, err := c.do(ctx, operation, method, c.endpoint(path, nil), token, contentType, body)
	if err != nil {
		return models.Place{}, err
	}

	// The backend already accepted the draft; an unreadable body must not
	// turn that into a failure the user would retry.
	place, err := decodePlace(payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("operation", operation).Msg("places response body not decoded")
		return models.Place{}, nil
	}
	return place, nil
}

func (c *Client) list(ctx context.Context, operation, path string, query url.Values, token string) ([]models.Place, error) {
	payload, err := c.do(ctx, operation, http.MethodGet, c.endpoint(path, query), token, "", nil)
	if err != nil {
		return nil, err
	}
	return c.decodePlaces(operation, payload)
}

func (c *Client) do(ctx context.Context, operation, method, endpoint, token, contentType string, body io.Reader) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "places."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("places.operation", operation))

	start := time.Now()
	status := "error"
	defer func() {
		observability.PlacesRequests().WithLabelValues(operation, status).Inc()
		observability.PlacesLatency().WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request build failed")
		return nil, fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		c.logger.Warn().Err(err).Str("operation", operation).Msg("places request failed")
		return nil, fmt.Errorf("places %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("read places %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
		span.SetStatus(codes.Error, "non-2xx response")
		c.logger.Warn().Int("status", resp.StatusCode).Str("operation", operation).Msg("places request rejected")
		return nil, apiErr
	}

	span.SetStatus(codes.Ok, "ok")
	return payload, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// EncodeDraft serialises the draft as a multipart body. Every text field is
// written; the image part is only added when an image is selected.
func EncodeDraft(draft models.SubmissionDraft) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range draft.TextFields() {
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.Key, err)
		}
	}

	if draft.Image.Size() > 0 {
		name := draft.Image.Name
		if strings.TrimSpace(name) == "" {
			name = "image"
		}
		part, err := writer.CreateFormFile(models.FieldImage, name)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(draft.Image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap strips an optional {"data": ...} envelope.
func unwrap(payload []byte, opening byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	inner := bytes.TrimSpace(env.Data)
	if len(inner) > 0 && inner[0] == opening {
		return inner
	}
	return trimmed
}

func decodePlace(payload []byte) (models.Place, error) {
	body := unwrap(payload, '{')
	if len(body) == 0 {
		return models.Place{}, nil
	}
	var place models.Place
	if err := json.Unmarshal(body, &place); err != nil {
		return models.Place{}, fmt.Errorf("decode place: %w", err)
	}
	return place, nil
}

// decodePlaces skips records it cannot read instead of failing the whole list.
func (c *Client) decodePlaces(operation string, payload []byte) ([]models.Place, error) {
	body := unwrap(payload, '[')
	if len(body) == 0 {
		return []models.Place{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}

	places := make([]models.Place, 0, len(items))
	for i, item := range items {
		var place models.Place
		if err := json.Unmarshal(item, &place); err != nil {
			c.logger.Warn().Err(err).Str("operation", operation).Int("index", i).Msg("skipping unreadable place")
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}
