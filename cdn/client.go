// Package cdn is a client for the CDN file hosting API. It uploads local
// files, in-memory content and remote URLs, and deletes uploaded files.
package cdn

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const errorSnippetSize = 120

// Client talks to one CDN endpoint with one API token. It keeps no per-call
// state and is safe for concurrent use.
type Client struct {
	endpointURL string
	apiToken    string
	httpClient  *http.Client
	logger      *zap.SugaredLogger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Timeouts and TLS settings
// belong here.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the CDN at endpointURL.
func NewClient(endpointURL, apiToken string, opts ...Option) *Client {
	client := &Client{
		endpointURL: strings.TrimSuffix(endpointURL, "/"),
		apiToken:    apiToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// requestParams is the payload of one CDN call. Query is used by GET calls,
// Form or File by POST calls.
type requestParams struct {
	Query url.Values
	Form  url.Values
	File  *filePart
}

type filePart struct {
	Field    string
	Filename string
	Content  []byte
}

// requestAPI sends one authenticated request to <endpoint>/<action>. A
// non-2xx status is returned as an error and the body is closed.
func (c *Client) requestAPI(ctx context.Context, method, action string, params requestParams) (*http.Response, error) {
	target := c.endpointURL + "/" + action + "?token=" + url.QueryEscape(c.apiToken)

	var (
		body        io.Reader
		contentType string
	)

	switch method {
	case http.MethodGet:
		if len(params.Query) > 0 {
			target += "&" + params.Query.Encode()
		}
	case http.MethodPost:
		var err error
		body, contentType, err = encodeBody(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	default:
		return nil, invalidMethodError(method)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, c.redact(err)
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("Accept", "application/json")

	c.logger.Debugw("cdn request", "method", method, "action", action)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, c.redact(err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		defer response.Body.Close()

		snippet, _ := io.ReadAll(io.LimitReader(response.Body, errorSnippetSize))
		c.logger.Warnw("cdn request failed", "method", method, "action", action, "status", response.StatusCode)

		return nil, fmt.Errorf("%s %s resulted in a %s response: %s", method, action, response.Status, strings.TrimSpace(string(snippet)))
	}

	return response, nil
}

func encodeBody(params requestParams) (io.Reader, string, error) {
	if params.File == nil {
		return strings.NewReader(params.Form.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(params.File.Field), escapeQuotes(params.File.Filename)))
	header.Set("Content-Type", contentTypeFor(params.File.Filename))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(params.File.Content); err != nil {
		return nil, "", err
	}

	for key, values := range params.Form {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buffer, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// redact removes the API token from URLs carried by transport errors.
func (c *Client) redact(err error) error {
	urlErr, ok := err.(*url.Error)
	if !ok {
		return err
	}

	redacted := *urlErr
	redacted.URL = redactURL(urlErr.URL)

	return &redacted
}

func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	if !query.Has("token") {
		return raw
	}

	query.Set("token", "REDACTED")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
