// Package genai is the client for the external recommendation
// generator, an OpenAI-compatible chat completions API. Calls are rate
// limited, guarded by a circuit breaker, and cached by prompt hash;
// callers substitute static fallback text when a call fails.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/healthlens/risk-engine/internal/domain"
)

// Config contains configuration for the generator client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	RateLimit   int // requests per second
	MaxTokens   int
	Temperature float64
}

// Client calls the chat completions endpoint and extracts numbered
// recommendation lines from the response.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *ResponseCache
	log        *logrus.Logger
}

// NewClient creates a generator client. The cache is optional; pass nil
// to disable response caching.
func NewClient(config Config, cache *ResponseCache, logger *logrus.Logger) *Client {
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 512
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RecommendationGenerator",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:     config.BaseURL,
		apiKey:      config.APIKey,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient:  &http.Client{Timeout: config.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:     breaker,
		cache:       cache,
		log:         logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate produces prioritized recommendation lines for the profile.
// It returns an error on transport failure, breaker rejection, or when
// the response contains no usable line; callers fall back to static
// text.
func (c *Client) Generate(ctx context.Context, profile *domain.HealthProfile, predictions map[string]*domain.RiskPrediction) ([]string, error) {
	prompt := BuildPrompt(profile, predictions)

	if c.cache != nil {
		if lines, ok, err := c.cache.Get(ctx, c.model, prompt); err != nil {
			c.log.WithField("error", err).Warn("Recommendation cache read failed")
		} else if ok {
			return lines, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return nil, &domain.GenerationFailureError{Cause: err}
	}

	content := result.(string)
	lines := ParseRecommendations(content)
	if len(lines) == 0 {
		return nil, &domain.GenerationFailureError{
			Cause: fmt.Errorf("no usable recommendation lines in response"),
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, c.model, prompt, lines, 0); err != nil {
			c.log.WithField("error", err).Warn("Recommendation cache write failed")
		}
	}

	return lines, nil
}

// complete performs one chat completions call and returns the message
// content of the first choice.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generator returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
