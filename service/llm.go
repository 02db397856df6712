package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AnTengye/lexiguide/config"
	"github.com/AnTengye/lexiguide/model"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidOutput is returned when the model reply does not match the expected shape
var ErrInvalidOutput = errors.New("invalid AI output")

// LLMService implements Analyzer against an OpenAI-compatible chat completions API
type LLMService struct {
	config     *config.LLMConfig
	baseURL    string
	httpClient *http.Client
	tokens     *tokenCounter
	tracer     trace.Tracer
}

// LLMOption configures the service
type LLMOption func(*LLMService)

// WithHTTPClient replaces the default instrumented client
func WithHTTPClient(client *http.Client) LLMOption {
	return func(s *LLMService) {
		s.httpClient = client
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewLLMService(cfg *config.LLMConfig, opts ...LLMOption) (*LLMService, error) {
	tokens, err := newTokenCounter(cfg.Model)
	if err != nil {
		return nil, err
	}

	s := &LLMService{
		config:  cfg,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		tracer: otel.Tracer("lexiguide/llm"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SummarizeClause returns a plain English summary of one clause
func (s *LLMService) SummarizeClause(ctx context.Context, clauseText string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := s.complete(ctx, summarizePrompt, map[string]string{"ClauseText": clauseText}, &out); err != nil {
		return "", err
	}
	if err := requireFields(summarizePrompt.op, field{"summary", out.Summary}); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Summary), nil
}

// AssessRisk rates one clause
func (s *LLMService) AssessRisk(ctx context.Context, clauseText string) (model.RiskAssessment, error) {
	var out struct {
		RiskLevel        string `json:"riskLevel"`
		RiskSummary      string `json:"riskSummary"`
		SuggestedActions string `json:"suggestedActions"`
	}
	if err := s.complete(ctx, riskPrompt, map[string]string{"ClauseText": clauseText}, &out); err != nil {
		return model.RiskAssessment{}, err
	}
	if err := requireFields(riskPrompt.op,
		field{"riskLevel", out.RiskLevel},
		field{"riskSummary", out.RiskSummary},
		field{"suggestedActions", out.SuggestedActions},
	); err != nil {
		return model.RiskAssessment{}, err
	}

	level, ok := model.ParseRiskLevel(out.RiskLevel)
	if !ok {
		return model.RiskAssessment{}, aiError(riskPrompt.op, fmt.Errorf("%w: unknown risk level %q", ErrInvalidOutput, out.RiskLevel))
	}
	return model.RiskAssessment{
		Level:            level,
		Summary:          strings.TrimSpace(out.RiskSummary),
		SuggestedActions: strings.TrimSpace(out.SuggestedActions),
	}, nil
}

// SuggestNegotiation proposes replacement wording for a clause
func (s *LLMService) SuggestNegotiation(ctx context.Context, contractText, clauseSummary, riskAssessment string) (model.NegotiationSuggestion, error) {
	var out struct {
		SuggestedEdits string `json:"suggestedEdits"`
		Explanation    string `json:"explanation"`
	}
	data := map[string]string{
		"ContractText":   contractText,
		"ClauseSummary":  clauseSummary,
		"RiskAssessment": riskAssessment,
	}
	if err := s.complete(ctx, negotiationPrompt, data, &out); err != nil {
		return model.NegotiationSuggestion{}, err
	}
	if err := requireFields(negotiationPrompt.op,
		field{"suggestedEdits", out.SuggestedEdits},
		field{"explanation", out.Explanation},
	); err != nil {
		return model.NegotiationSuggestion{}, err
	}
	return model.NegotiationSuggestion{
		SuggestedEdits: strings.TrimSpace(out.SuggestedEdits),
		Explanation:    strings.TrimSpace(out.Explanation),
	}, nil
}

// AnalyzeOverallContract assesses the contract as a whole
func (s *LLMService) AnalyzeOverallContract(ctx context.Context, contractText string) (OverallResult, error) {
	var out struct {
		OverallRiskAssessment  string `json:"overallRiskAssessment"`
		OverallRecommendations string `json:"overallRecommendations"`
		ExploitationPotential  string `json:"exploitationPotential"`
	}
	if err := s.complete(ctx, overallPrompt, map[string]string{"ContractText": contractText}, &out); err != nil {
		return OverallResult{}, err
	}
	if err := requireFields(overallPrompt.op,
		field{"overallRiskAssessment", out.OverallRiskAssessment},
		field{"overallRecommendations", out.OverallRecommendations},
	); err != nil {
		return OverallResult{}, err
	}
	return OverallResult{
		RiskAssessment:        strings.TrimSpace(out.OverallRiskAssessment),
		Recommendations:       strings.TrimSpace(out.OverallRecommendations),
		ExploitationPotential: strings.TrimSpace(out.ExploitationPotential),
	}, nil
}

// AskAdvisor answers a question about the contract
func (s *LLMService) AskAdvisor(ctx context.Context, contractText, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	data := map[string]string{"ContractText": contractText, "Question": question}
	if err := s.complete(ctx, advisorPrompt, data, &out); err != nil {
		return "", err
	}
	if err := requireFields(advisorPrompt.op, field{"answer", out.Answer}); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Answer), nil
}

// complete renders p, sends it and decodes the JSON reply into out
func (s *LLMService) complete(ctx context.Context, p prompt, data any, out any) (err error) {
	ctx, span := s.tracer.Start(ctx, "llm.chat_completion",
		trace.WithAttributes(
			attribute.String("llm.op", p.op),
			attribute.String("llm.model", s.config.Model),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, p.op+" failed")
		}
		span.End()
	}()

	user, err := p.render(data)
	if err != nil {
		return aiError(p.op, fmt.Errorf("failed to render prompt: %w", err))
	}

	promptTokens := s.tokens.Count(p.system, user)
	span.SetAttributes(attribute.Int("llm.prompt_tokens", promptTokens))
	if s.config.MaxPromptTokens > 0 && promptTokens > s.config.MaxPromptTokens {
		return aiError(p.op, fmt.Errorf("%w: %d tokens, limit %d", ErrPromptTooLong, promptTokens, s.config.MaxPromptTokens))
	}

	req := &chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if s.config.Temperature > 0 {
		t := s.config.Temperature
		req.Temperature = &t
	}

	resp, err := s.chat(ctx, req)
	if err != nil {
		return aiError(p.op, err)
	}
	span.SetAttributes(attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return aiError(p.op, fmt.Errorf("%w: no choices in response", ErrInvalidOutput))
	}
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if content == "" {
		return aiError(p.op, fmt.Errorf("%w: empty response", ErrInvalidOutput))
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return aiError(p.op, fmt.Errorf("%w: %v", ErrInvalidOutput, err))
	}
	return nil
}

func (s *LLMService) chat(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite json mode
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type field struct {
	name  string
	value string
}

func requireFields(op string, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return aiError(op, fmt.Errorf("%w: missing %s", ErrInvalidOutput, strings.Join(missing, ", ")))
	}
	return nil
}
