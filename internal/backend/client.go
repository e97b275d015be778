// Package backend is the storefront's client for the remote shop API, the chatbot and
// the image-similarity service. It implements the Backend interface of every feature.
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
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/circuitbreaker"
)

// maxErrorBody bounds how much of a failed response is kept for classification.
const maxErrorBody = 4 << 10

const (
	upstreamAPI         = "shop-api"
	upstreamChatbot     = "chatbot"
	upstreamImageSearch = "image-search"
)

type Config struct {
	BaseURL        string
	ChatbotURL     string
	ImageSearchURL string
	Timeout        time.Duration
	Breaker        circuitbreaker.Config
}

type Client struct {
	baseURL        string
	chatbotURL     string
	imageSearchURL string
	http           *http.Client
	breakers       *circuitbreaker.Manager
	log            *logrus.Entry
}

func New(cfg Config, logger *logrus.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.ChatbotURL == "" {
		cfg.ChatbotURL = cfg.BaseURL
	}
	if cfg.Breaker.IsFailure == nil {
		cfg.Breaker.IsFailure = countsAgainstBreaker
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		chatbotURL:     strings.TrimRight(cfg.ChatbotURL, "/"),
		imageSearchURL: strings.TrimRight(cfg.ImageSearchURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		},
		breakers: circuitbreaker.NewManager(cfg.Breaker, logger),
		log:      logger.WithField("component", "backend"),
	}
}

// BaseURL is the shop API host, also used to resolve relative asset paths.
func (c *Client) BaseURL() string { return c.baseURL }

// BreakerStates reports the state of every upstream breaker, for the health endpoint.
func (c *Client) BreakerStates() map[string]string { return c.breakers.States() }

// countsAgainstBreaker trips the breaker on transport failures and server errors only;
// a 404 or a rejected login says nothing about the upstream's health.
func countsAgainstBreaker(err error) bool {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return true
	}
	return e.Kind == apperr.KindNetwork || e.Status >= http.StatusInternalServerError
}

type call struct {
	upstream    string
	method      string
	url         string
	token       string
	body        io.Reader
	contentType string
}

func (c *Client) api(method, path, token string) call {
	return call{upstream: upstreamAPI, method: method, url: c.baseURL + path, token: token}
}

func (cl call) withJSON(v interface{}) (call, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return cl, fmt.Errorf("encode %s body: %w", cl.url, err)
	}
	cl.body = bytes.NewReader(b)
	cl.contentType = "application/json"
	return cl, nil
}

// do runs the call behind the upstream's breaker and decodes a 2xx JSON answer into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	op := cl.method + " " + cl.url
	err := c.breakers.Get(cl.upstream).Execute(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, cl, out)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return apperr.Wrap(op, apperr.KindNetwork, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op string, cl call, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, cl.body)
	if err != nil {
		return fmt.Errorf("build request %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": cl.method, "url": cl.url}).Warn("backend request failed")
		return apperr.Wrap(op, apperr.KindNetwork, err)
	}
	defer res.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   cl.method,
		"url":      cl.url,
		"status":   res.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend call")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return classify(op, res.StatusCode, body)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &apperr.Error{Op: op, Kind: apperr.KindNonOK, Status: res.StatusCode, Message: "unreadable response", Err: err}
	}
	return nil
}

// classify maps a non-2xx answer to an error kind.
func classify(op string, status int, body []byte) error {
	kind := apperr.KindNonOK
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = apperr.KindUnauthenticated
	case status == http.StatusNotFound:
		kind = apperr.KindNotFound
	case status == http.StatusConflict || bytes.Contains(bytes.ToLower(body), []byte("already exists")):
		kind = apperr.KindConflict
	case status == http.StatusBadRequest:
		kind = apperr.KindValidation
	}
	return &apperr.Error{Op: op, Kind: kind, Status: status, Message: errorMessage(body)}
}

// errorMessage pulls a message field out of a JSON error body when there is one.
func errorMessage(body []byte) string {
	var v struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &v) == nil {
		if v.Message != "" {
			return v.Message
		}
		return v.Error
	}
	return ""
}

// absolute resolves a relative asset path against the API host.
func (c *Client) absolute(url string) string {
	if url == "" || strings.HasPrefix(url, "http") {
		return url
	}
	return c.baseURL + url
}
