package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"log/slog"

	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/internal/narrative"
)

// Client implements narrative.Analyzer against the Gemini generateContent
// API. Responses are requested as a JSON object and validated against
// narrative.BuildNarrativeJSONSchema; a reply that fails validation is
// leniently accepted as raw text rather than discarded.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

var _ narrative.Analyzer = (*Client)(nil)

func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.APIKey == "" {
		c.log.Warn("narrative.analyze.skipped", "req_id", rid, "reason", "no api key configured")
		return "", nil
	}

	input := text
	if len(input) > c.cfg.MaxInputChars {
		cut := c.cfg.MaxInputChars
		// back off to a rune boundary so the prompt stays valid UTF-8
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}

	c.log.Info("narrative.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(input),
	)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": buildPrompt(input)}}},
		},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"responseMimeType": "application/json",
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("narrative.analyze.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("narrative.analyze.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.log.Warn("narrative.analyze.no_candidates",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", nil
	}
	content := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)

	// Validate the structured reply; fall back to the raw text on a
	// schema miss so a chatty model still yields a usable narrative.
	out := content
	schema := narrative.BuildNarrativeJSONSchema()
	if err := narrative.ValidateJSONAgainstSchema(schema, []byte(content)); err == nil {
		var parsed struct {
			Narrative string `json:"narrative"`
		}
		if uerr := json.Unmarshal([]byte(content), &parsed); uerr == nil {
			out = strings.TrimSpace(parsed.Narrative)
		}
	} else {
		c.log.Warn("narrative.analyze.lenient_fallback",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}

	c.log.Info("narrative.analyze.ok",
		"req_id", rid,
		"narrative_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.log.Warn("gemini response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are assisting a fraud and corruption review. ")
	b.WriteString("Summarize any fraud or corruption risk indicators in the document below. ")
	b.WriteString("Be factual and cautious: describe patterns, never assert guilt or accuse named individuals. ")
	b.WriteString(`Return ONLY a JSON object of the form {"narrative": "<your summary>"}.`)
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
