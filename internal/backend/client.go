// Package backend 实现对外部生成服务的 HTTP 客户端。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mohammadsarwary/content-craft-ai/internal/activity"
	"github.com/mohammadsarwary/content-craft-ai/internal/domain"
	"github.com/mohammadsarwary/content-craft-ai/internal/event"
	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

// Credentials 为调用后端所需的地址与密钥。
type Credentials struct {
	BaseURL string
	Secret  string
}

func (c Credentials) configured() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.Secret) != ""
}

// CredentialSource 在每次调用时提供最新凭据。
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials 为固定凭据。
type StaticCredentials Credentials

// Credentials 实现 CredentialSource。
func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// Recorder 写入调用结果。
type Recorder interface {
	Log(ctx context.Context, rec activity.Record) (int64, error)
}

// RequestArgs 为发往后端的请求参数，可被请求钩子修改。
type RequestArgs struct {
	URL     string
	Header  http.Header
	Body    map[string]any
	Timeout time.Duration
}

// RequestHook 在发送前按注册顺序调用。
type RequestHook func(endpoint string, args RequestArgs) RequestArgs

// ResponseHook 在成功响应后按注册顺序调用。
type ResponseHook func(endpoint string, response map[string]any) map[string]any

// Response 为成功调用的完整响应信封。
type Response struct {
	Body map[string]any
}

// Data 返回响应中的 data 对象。
func (r *Response) Data() map[string]any {
	data, _ := r.Body["data"].(map[string]any)
	return data
}

// Metadata 返回响应中的 metadata 对象。
func (r *Response) Metadata() map[string]any {
	meta, _ := r.Body["metadata"].(map[string]any)
	return meta
}

// TokensUsed 返回 metadata.tokens_used，缺省为 0。
func (r *Response) TokensUsed() int64 {
	return toInt64(r.Metadata()["tokens_used"])
}

// ConnectionStatus 为连通性检测结果。
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	Version   string `json:"version,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// Options 配置客户端行为。
type Options struct {
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Product      string
	Version      string
	HTTPClient   *http.Client
	Metrics      *Metrics
	Publisher    event.Publisher
}

// Client 调用外部生成服务，分类失败并写入活动日志。
type Client struct {
	creds     CredentialSource
	recorder  Recorder
	logger    *zap.Logger
	http      *http.Client
	metrics   *Metrics
	publisher event.Publisher
	timeout   time.Duration
	probe     time.Duration
	userAgent string

	mu            sync.RWMutex
	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// NewClient 创建后端客户端。
func NewClient(creds CredentialSource, recorder Recorder, logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 10 * time.Second
	}
	if opts.Product == "" {
		opts.Product = "ContentCraft-AI"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		creds:     creds,
		recorder:  recorder,
		logger:    logger,
		http:      opts.HTTPClient,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		timeout:   opts.Timeout,
		probe:     opts.ProbeTimeout,
		userAgent: opts.Product + "/" + opts.Version,
	}
}

// UseRequestHook 注册请求钩子。
func (c *Client) UseRequestHook(hook RequestHook) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestHooks = append(c.requestHooks, hook)
}

// UseResponseHook 注册响应钩子。
func (c *Client) UseResponseHook(hook ResponseHook) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseHooks = append(c.responseHooks, hook)
}

type callOptions struct {
	timeout  time.Duration
	targetID *int64
}

// CallOption 调整单次调用。
type CallOption func(*callOptions)

// WithTimeout 覆盖本次调用的超时时间。
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTargetID 为本次调用的日志记录关联目标对象。
func WithTargetID(id int64) CallOption {
	return func(o *callOptions) {
		if id > 0 {
			o.targetID = &id
		}
	}
}

// Post 调用后端端点。可预期的失败以 *Failure 返回；除未配置外，每次调用恰好写入一条日志。
func (c *Client) Post(ctx context.Context, endpoint string, body map[string]any, opts ...CallOption) (*Response, error) {
	start := time.Now()
	logType := LogTypeForEndpoint(endpoint)

	call := callOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&call)
	}

	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load backend credentials: %w", err)
	}
	if !creds.configured() {
		c.logger.Debug("backend credentials not configured", zap.String("endpoint", endpoint))
		c.metrics.observe(string(logType), KindNotConfigured, 0, 0)
		return nil, &Failure{Kind: KindNotConfigured, Message: msgNotConfigured}
	}

	args := RequestArgs{
		URL:     JoinURL(creds.BaseURL, endpoint),
		Header:  c.headers(creds.Secret, true),
		Body:    cloneBody(body),
		Timeout: call.timeout,
	}
	args = c.applyRequestHooks(endpoint, args)

	c.publish(event.BeforeRequest, event.RequestPayload{Endpoint: endpoint, Body: body})
	c.logger.Debug("backend request", zap.String("url", args.URL), zap.String("endpoint", endpoint))

	status, raw, err := c.send(ctx, http.MethodPost, args)
	elapsed := time.Since(start)
	if err != nil {
		return nil, c.fail(ctx, endpoint, body, call, elapsed, &Failure{Kind: KindTransport, Message: err.Error()}, err.Error())
	}

	c.logger.Debug("backend response", zap.String("endpoint", endpoint), zap.Int("status", status))

	envelope, err := decodeObject(raw)
	if err != nil {
		return nil, c.fail(ctx, endpoint, body, call, elapsed, &Failure{Kind: KindParse, Message: msgParseFailed, Status: status}, msgParseLog)
	}

	if status < 200 || status > 299 {
		code, message := errorFields(envelope)
		if code == "" {
			code = CodeUnknown
		}
		if message == "" {
			message = msgRequestFailed
		}
		return nil, c.fail(ctx, endpoint, body, call, elapsed, &Failure{Kind: code, Message: message, Status: status}, message)
	}

	if ok, _ := envelope["success"].(bool); !ok {
		_, message := errorFields(envelope)
		if message == "" {
			message = msgGenerationFailed
		}
		return nil, c.fail(ctx, endpoint, body, call, elapsed, &Failure{Kind: KindGenerationFailed, Message: message, Status: status}, message)
	}

	resp := &Response{Body: envelope}
	tokens := resp.TokensUsed()
	c.record(ctx, activity.Record{
		Type:       logType,
		TargetID:   call.targetID,
		TokensUsed: tokens,
		LatencyMs:  elapsed.Milliseconds(),
		Status:     domain.LogStatusSuccess,
	})
	c.metrics.observe(string(logType), string(domain.LogStatusSuccess), elapsed, tokens)

	resp.Body = c.applyResponseHooks(endpoint, resp.Body)
	c.publish(event.AfterRequest, event.ResponsePayload{Endpoint: endpoint, Response: resp.Body})
	return resp, nil
}

// Get 以较短的超时读取端点，不写日志也不经过钩子。
func (c *Client) Get(ctx context.Context, endpoint string) (map[string]any, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load backend credentials: %w", err)
	}
	if strings.TrimSpace(creds.BaseURL) == "" {
		return nil, &Failure{Kind: KindNotConfigured, Message: msgNotConfigured}
	}

	args := RequestArgs{
		URL:     JoinURL(creds.BaseURL, endpoint),
		Header:  c.headers(creds.Secret, false),
		Timeout: c.probe,
	}
	status, raw, err := c.send(ctx, http.MethodGet, args)
	if err != nil {
		return nil, &Failure{Kind: KindTransport, Message: err.Error()}
	}
	envelope, err := decodeObject(raw)
	if err != nil || status < 200 || status > 299 {
		return nil, &Failure{Kind: KindAPIError, Message: msgRequestFailed, Status: status}
	}
	return envelope, nil
}

// TestConnection 探测后端健康接口。
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	body, err := c.Get(ctx, EndpointHealth)
	if err != nil {
		message := err.Error()
		var failure *Failure
		if errors.As(err, &failure) {
			message = failure.Message
		}
		return ConnectionStatus{Connected: false, Message: message}
	}
	return ConnectionStatus{
		Connected: true,
		Message:   "Successfully connected to FastAPI backend.",
		Version:   stringOr(body["version"], "unknown"),
		Provider:  stringOr(body["provider"], "unknown"),
	}
}

func (c *Client) headers(secret string, withBody bool) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+secret)
	header.Set("User-Agent", c.userAgent)
	if withBody {
		header.Set("Content-Type", "application/json")
	}
	return header
}

func (c *Client) send(ctx context.Context, method string, args RequestArgs) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, args.Timeout)
	defer cancel()

	var reader io.Reader
	if method != http.MethodGet {
		payload, err := json.Marshal(args.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, args.URL, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header = args.Header.Clone()

	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, raw, nil
}

// cloneBody 复制请求体，钩子的修改不会影响调用方持有的 map。
func cloneBody(body map[string]any) map[string]any {
	if body == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneBody(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		if typed == nil {
			return typed
		}
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	default:
		return v
	}
}

// fail 写入失败日志并广播失败事件。
func (c *Client) fail(ctx context.Context, endpoint string, body map[string]any, call callOptions, elapsed time.Duration, failure *Failure, logMessage string) error {
	logType := LogTypeForEndpoint(endpoint)
	c.logger.Warn("backend request failed",
		zap.String("endpoint", endpoint),
		zap.String("kind", failure.Kind),
		zap.Int("status", failure.Status),
		zap.String("message", failure.Message),
	)
	c.record(ctx, activity.Record{
		Type:         logType,
		TargetID:     call.targetID,
		LatencyMs:    elapsed.Milliseconds(),
		Status:       domain.LogStatusFailed,
		ErrorMessage: logMessage,
	})
	c.metrics.observe(string(logType), string(domain.LogStatusFailed), elapsed, 0)
	c.publish(event.GenerationFailed, event.FailurePayload{Endpoint: endpoint, Err: failure, Body: body})
	return failure
}

// record 的写入失败只记日志，不影响调用结果。
func (c *Client) record(ctx context.Context, rec activity.Record) {
	if c.recorder == nil {
		return
	}
	if _, err := c.recorder.Log(ctx, rec); err != nil {
		c.logger.Error("record backend call failed", zap.Error(err))
	}
}

func (c *Client) publish(name event.Name, payload any) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(event.Event{Name: name, Payload: payload})
}

func (c *Client) applyRequestHooks(endpoint string, args RequestArgs) RequestArgs {
	c.mu.RLock()
	hooks := append([]RequestHook(nil), c.requestHooks...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		args = hook(endpoint, args)
	}
	if args.Header == nil {
		args.Header = http.Header{}
	}
	if args.Timeout <= 0 {
		args.Timeout = c.timeout
	}
	return args
}

func (c *Client) applyResponseHooks(endpoint string, response map[string]any) map[string]any {
	c.mu.RLock()
	hooks := append([]ResponseHook(nil), c.responseHooks...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		if next := hook(endpoint, response); next != nil {
			response = next
		}
	}
	return response
}

func decodeObject(raw []byte) (map[string]any, error) {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, errors.New("response is not an object")
	}
	return envelope, nil
}

func errorFields(envelope map[string]any) (string, string) {
	errObj, _ := envelope["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	message, _ := errObj["message"].(string)
	return code, message
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		var i int64
		if _, err := fmt.Sscan(n, &i); err == nil {
			return i
		}
	}
	return 0
}
