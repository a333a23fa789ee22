// Package transport performs single HTTP requests against the agent backend
// and returns either decoded JSON, raw bytes or a readable stream.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxErrorBodyBytes = 4096

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	header     http.Header
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Stream is an open response body that is read incrementally.
type Stream struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

func (s *Stream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

// MultipartFile is a single file part of a multipart request.
type MultipartFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in any, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, out)
}

// PostQuery posts without a body, passing its arguments in the query string,
// and decodes the JSON answer into out.
func (c *Client) PostQuery(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodPost, path, query, http.NoBody, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, out)
}

// PostBytes posts a JSON body and returns the raw response body together with
// its content type.
func (c *Client) PostBytes(ctx context.Context, path string, in any) ([]byte, string, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", c.noResponse(http.MethodPost, path, fmt.Errorf("error reading response body: %w", err))
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// PostMultipart sends form fields and a file as multipart/form-data and
// decodes the JSON answer into out.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file MultipartFile, out any) error {
	body, contentType, err := encodeMultipart(fields, file)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, out)
}

// PostStream posts a JSON body and hands back the open response body. The
// caller owns the stream and must close it.
func (c *Client) PostStream(ctx context.Context, path string, in any) (*Stream, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return nil, err
	}
	return &Stream{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// PostMultipartStream is the multipart counterpart of [Client.PostStream].
func (c *Client) PostMultipartStream(ctx context.Context, path string, fields map[string]string, file MultipartFile) (*Stream, error) {
	body, contentType, err := encodeMultipart(fields, file)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		return nil, err
	}
	return &Stream{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	ctx, span := tracer.Start(ctx, "backend request")
	defer span.End()

	target := c.resolve(path, query)
	span.SetAttributes(
		attribute.String("request.method", method),
		attribute.String("request.url", target),
	)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		transportErr := &TransportError{Method: method, URL: target, Err: err}
		span.RecordError(transportErr)
		span.SetStatus(codes.Error, transportErr.Error())
		return nil, transportErr
	}

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errorBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if readErr != nil {
			logger.WarnContext(ctx, "failed to read error body", "url", target, "error", readErr)
		}
		transportErr := &TransportError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errorBody)),
		}
		span.RecordError(transportErr)
		span.SetStatus(codes.Error, transportErr.Error())
		return nil, transportErr
	}

	return resp, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

func (c *Client) noResponse(method, path string, err error) error {
	return &TransportError{Method: method, URL: c.resolve(path, nil), Err: err}
}

func encodeJSON(in any) (io.Reader, error) {
	if in == nil {
		return http.NoBody, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}
	return bytes.NewReader(data), nil
}

func decodeJSON(body io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("error unmarshalling JSON: %w", err)
	}
	return nil
}

func encodeMultipart(fields map[string]string, file MultipartFile) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("error writing form field %q: %w", key, err)
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("error creating file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("error writing file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("error closing multipart body: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
