package jira

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the transport-level result every Session method returns. The
// body is fully read so callers can decode it more than once.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDecode, "response body is not valid JSON").
			WithDetails(string(r.Body))
	}
	return nil
}

func (r *Response) JSONMap() (map[string]any, error) {
	var m map[string]any
	if err := r.JSON(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Session is the transport collaborator. A Session is shared across every
// resource materialized from the same root fetch; resources only invoke
// request methods on it and never reconfigure it. HTTP error statuses are
// reported through the Response, not the error return; the error covers
// connection-level failures only.
type Session interface {
	Get(ctx context.Context, url string, headers map[string]string, params url.Values) (*Response, error)
	Post(ctx context.Context, url string, body any) (*Response, error)
	Put(ctx context.Context, url string, body any) (*Response, error)
	Delete(ctx context.Context, url string, params url.Values) (*Response, error)

	// Enqueue hands a fire-and-forget mutation to the session-owned job set.
	// Jobs run to completion independently of the resource that created them.
	Enqueue(job func(ctx context.Context) error)
}

// UserProvisioner is the privileged client handle the auto-repair protocol
// uses to create placeholder accounts for users the server rejects.
type UserProvisioner interface {
	AddUser(ctx context.Context, username, email string, active bool) error
}

type SessionConfig struct {
	HTTPClient        *http.Client
	MaxRetries        int
	MaxRetryDelay     time.Duration
	RequestsPerSecond int
	DefaultHeaders    map[string]string
	Logger            Logger
}

// ResilientSession implements Session over net/http with a request rate
// limiter and bounded retries on 429, 5xx and connection errors. Request
// headers and bodies are never written to the log.
type ResilientSession struct {
	client        *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	maxRetryDelay time.Duration
	headers       map[string]string
	logger        Logger

	jobs errgroup.Group
}

const (
	defaultMaxRetries    = 3
	defaultMaxRetryDelay = 60 * time.Second
	defaultSessionRPS    = 10
)

func NewResilientSession(cfg SessionConfig) *ResilientSession {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	maxRetryDelay := cfg.MaxRetryDelay
	if maxRetryDelay == 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultSessionRPS
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &ResilientSession{
		client:        client,
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
		maxRetries:    maxRetries,
		maxRetryDelay: maxRetryDelay,
		headers:       cfg.DefaultHeaders,
		logger:        logger,
	}
}

func (s *ResilientSession) Get(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error) {
	return s.do(ctx, http.MethodGet, rawURL, headers, params, nil)
}

func (s *ResilientSession) Post(ctx context.Context, rawURL string, body any) (*Response, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodPost, rawURL, nil, nil, payload)
}

func (s *ResilientSession) Put(ctx context.Context, rawURL string, body any) (*Response, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodPut, rawURL, nil, nil, payload)
}

func (s *ResilientSession) Delete(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return s.do(ctx, http.MethodDelete, rawURL, nil, params, nil)
}

func (s *ResilientSession) Enqueue(job func(ctx context.Context) error) {
	s.jobs.Go(func() error {
		return job(context.Background())
	})
}

// Drain blocks until every enqueued job has finished and returns the first
// job error, if any.
func (s *ResilientSession) Drain() error {
	return s.jobs.Wait()
}

func marshalBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "marshaling request body")
		}
		return payload, nil
	}
}

func (s *ResilientSession) do(ctx context.Context, method, rawURL string, headers map[string]string, params url.Values, body []byte) (*Response, error) {
	if len(params) > 0 {
		sep := "?"
		if containsQuery(rawURL) {
			sep = "&"
		}
		rawURL = rawURL + sep + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTransport, "rate limiter interrupted")
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTransport, "building request")
		}
		for k, v := range s.headers {
			req.Header.Set(k, v)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if len(body) > 0 && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			// Deliberately log only method, URL and attempt: header and body
			// values can carry credentials.
			lastErr = err
			s.logger.Warnf(ctx, "%s %s failed (attempt %d/%d)", method, rawURL, attempt+1, s.maxRetries+1)
			if attempt < s.maxRetries {
				if werr := s.backoff(ctx, attempt, ""); werr != nil {
					return nil, werr
				}
				continue
			}
			break
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < s.maxRetries {
				if werr := s.backoff(ctx, attempt, ""); werr != nil {
					return nil, werr
				}
				continue
			}
			break
		}

		if retryableStatus(resp.StatusCode) && attempt < s.maxRetries {
			s.logger.Warnf(ctx, "%s %s returned %d, retrying (attempt %d/%d)",
				method, rawURL, resp.StatusCode, attempt+1, s.maxRetries+1)
			if werr := s.backoff(ctx, attempt, resp.Header.Get("Retry-After")); werr != nil {
				return nil, werr
			}
			continue
		}

		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
	}

	return nil, apperrors.Wrap(lastErr, apperrors.CodeTransport,
		method+" "+rawURL+" failed after retries")
}

func (s *ResilientSession) backoff(ctx context.Context, attempt int, retryAfter string) error {
	delay := time.Second * time.Duration(1<<attempt)
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil {
			delay = time.Duration(secs) * time.Second
		}
	}
	if delay > s.maxRetryDelay {
		delay = s.maxRetryDelay
	}
	select {
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.CodeTransport, "request canceled during backoff")
	case <-time.After(delay):
		return nil
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func containsQuery(rawURL string) bool {
	for i := 0; i < len(rawURL); i++ {
		if rawURL[i] == '?' {
			return true
		}
	}
	return false
}

// parseErrorList extracts the server's structured error strings from a
// rejected response. Jira reports both a flat "errorMessages" array and a
// field-keyed "errors" object; both feed the auto-repair heuristics.
func parseErrorList(resp *Response) []string {
	if resp == nil || len(resp.Body) == 0 {
		return nil
	}
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return []string{string(resp.Body)}
	}
	out := append([]string{}, parsed.ErrorMessages...)
	keys := make([]string, 0, len(parsed.Errors))
	for k := range parsed.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, parsed.Errors[k])
	}
	return out
}
