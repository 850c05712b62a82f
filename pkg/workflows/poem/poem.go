// Package poem implements the LLM-backed poem generation workflow.
package poem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/dailygate/pkg/llm"
	"github.com/dukex/dailygate/pkg/models"
)

const (
	defaultStyle  = "现代"
	defaultLength = "中等"

	completionTemperature = 0.8
	completionMaxTokens   = 1000
	executionTimeout      = 30 * time.Second

	systemPrompt = "你是一位优秀的诗人，擅长创作各种风格的诗歌。" +
		"请根据用户的要求创作诗歌，并确保返回的是有效的JSON格式。"

	defaultAnalysis = "基于主题创作的诗歌作品"
)

var lengthGuide = map[string]string{
	"短诗": "4-8行",
	"中等": "12-20行",
	"长诗": "24-40行",
}

var styleGuide = map[string]string{
	"古典":  "使用古典诗词的韵律和意象，注重平仄和对仗",
	"现代":  "使用现代诗歌的自由表达方式，注重情感和意境",
	"自由诗": "不拘格律，自由表达情感和思想",
	"律诗":  "遵循律诗格律，八句四联，讲究平仄对仗",
	"绝句":  "四句诗，注重意境和韵律",
}

// Handler generates a themed poem through the configured completion
// client and normalizes the model output into a stable shape.
type Handler struct {
	client llm.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(client llm.Client, logger *slog.Logger) *Handler {
	return &Handler{
		client: client,
		logger: logger.With("module", "workflow", "workflow", "poem_generator"),
		now:    time.Now,
	}
}

func (h *Handler) Name() string        { return "poem_generator" }
func (h *Handler) Description() string { return "基于给定主题生成诗歌" }
func (h *Handler) Version() string     { return "1.0.0" }

func (h *Handler) InputSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type: "object",
		Properties: map[string]*models.Property{
			"theme": {
				Type:        "string",
				Description: "诗歌主题",
				MinLength:   models.IntPtr(1),
				MaxLength:   models.IntPtr(100),
			},
			"style": {
				Type:        "string",
				Description: "诗歌风格",
				Enum:        []any{"古典", "现代", "自由诗", "律诗", "绝句"},
				Default:     defaultStyle,
			},
			"length": {
				Type:        "string",
				Description: "诗歌长度",
				Enum:        []any{"短诗", "中等", "长诗"},
				Default:     defaultLength,
			},
		},
		Required:             []string{"theme"},
		AdditionalProperties: false,
	}
}

func (h *Handler) OutputSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type: "object",
		Properties: map[string]*models.Property{
			"poem": {
				Type:        "string",
				Description: "生成的诗歌内容",
			},
			"title": {
				Type:        "string",
				Description: "诗歌标题",
			},
			"analysis": {
				Type:        "string",
				Description: "诗歌创作说明",
			},
			"metadata": {
				Type: "object",
				Properties: map[string]*models.Property{
					"theme":      {Type: "string"},
					"style":      {Type: "string"},
					"length":     {Type: "string"},
					"word_count": {Type: "integer"},
					"line_count": {Type: "integer"},
				},
			},
		},
		Required: []string{"poem", "title"},
	}
}

// ExecutionTimeout bounds the upstream completion call.
func (h *Handler) ExecutionTimeout() time.Duration {
	return executionTimeout
}

// Preprocess trims the theme and fills style and length defaults.
func (h *Handler) Preprocess(inputs map[string]any) (map[string]any, error) {
	processed := make(map[string]any, len(inputs))
	for k, v := range inputs {
		processed[k] = v
	}

	if theme, ok := processed["theme"].(string); ok {
		processed["theme"] = strings.TrimSpace(theme)
	}

	if _, ok := processed["style"]; !ok {
		processed["style"] = defaultStyle
	}

	if _, ok := processed["length"]; !ok {
		processed["length"] = defaultLength
	}

	return processed, nil
}

func (h *Handler) Execute(ctx context.Context, inputs map[string]any, identity string) (map[string]any, error) {
	theme, _ := inputs["theme"].(string)
	style := stringOr(inputs["style"], defaultStyle)
	length := stringOr(inputs["length"], defaultLength)

	h.logger.Info("Generating poem", "identity", identity, "theme", theme, "style", style)

	completion, err := h.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(theme, style, length),
		MaxTokens:    completionMaxTokens,
		Temperature:  completionTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("poem generation failed: %w", err)
	}

	outputs := h.parseResult(completion.Content, theme, style, length)
	outputs["tokens_used"] = completion.TokensUsed

	return outputs, nil
}

// Postprocess strips blank lines so the poem renders consistently.
func (h *Handler) Postprocess(outputs map[string]any) (map[string]any, error) {
	if poem, ok := outputs["poem"].(string); ok {
		lines := make([]string, 0)

		for _, line := range strings.Split(poem, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}

		outputs["poem"] = strings.Join(lines, "\n")
	}

	return outputs, nil
}

func buildPrompt(theme, style, length string) string {
	guide, ok := styleGuide[style]
	if !ok {
		guide = "自然流畅的表达"
	}

	lineRange, ok := lengthGuide[length]
	if !ok {
		lineRange = "适中长度"
	}

	return fmt.Sprintf(`请以"%s"为主题创作一首%s风格的诗歌。

要求：
1. 风格特点：%s
2. 长度：%s
3. 内容要求：围绕主题"%s"展开，情感真挚，意境优美
4. 语言要求：用词精准，富有诗意

请按以下JSON格式返回结果：
{
    "title": "诗歌标题",
    "poem": "诗歌正文\n每行用\n分隔",
    "analysis": "简要的创作说明，包括主题表达和艺术特色"
}

请确保返回的是有效的JSON格式。`, theme, style, guide, lineRange, theme)
}

type poemPayload struct {
	Title    string `json:"title"`
	Poem     string `json:"poem"`
	Analysis string `json:"analysis"`
}

// parseResult turns the raw model reply into the output shape. It
// first tries strict JSON (after stripping a markdown fence), then a
// line-based heuristic, and never fails: an unparseable reply becomes
// the poem body itself.
func (h *Handler) parseResult(raw, theme, style, length string) map[string]any {
	payload, ok := decodeJSON(raw)
	if !ok {
		payload = fallbackParse(raw, theme)
	}

	if payload.Poem == "" {
		payload.Poem = raw
	}

	if payload.Title == "" {
		payload.Title = fmt.Sprintf("《%s》", theme)
	}

	if payload.Analysis == "" {
		payload.Analysis = defaultAnalysis
	}

	lineCount := 0

	for _, line := range strings.Split(payload.Poem, "\n") {
		if strings.TrimSpace(line) != "" {
			lineCount++
		}
	}

	compact := strings.ReplaceAll(strings.ReplaceAll(payload.Poem, "\n", ""), " ", "")
	wordCount := len([]rune(compact))

	return map[string]any{
		"poem":     payload.Poem,
		"title":    payload.Title,
		"analysis": payload.Analysis,
		"metadata": map[string]any{
			"theme":        theme,
			"style":        style,
			"length":       length,
			"word_count":   wordCount,
			"line_count":   lineCount,
			"generated_at": h.now().Format(time.RFC3339),
		},
	}
}

func decodeJSON(raw string) (poemPayload, bool) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var payload poemPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return poemPayload{}, false
	}

	return payload, true
}

var titleMarkers = []string{"标题", "题目", "《", "》"}

var skipMarkers = []string{"json", "```", "分析", "说明"}

const maxPoemLines = 20

func fallbackParse(text, theme string) poemPayload {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	title := fmt.Sprintf("《%s》", theme)

	for i, line := range lines {
		if containsAny(line, titleMarkers) {
			title = strings.TrimSpace(line)
			lines = lines[i+1:]

			break
		}
	}

	poemLines := make([]string, 0, len(lines))

	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" || containsAny(strings.ToLower(clean), skipMarkers) {
			continue
		}

		poemLines = append(poemLines, clean)
	}

	if len(poemLines) > maxPoemLines {
		poemLines = poemLines[:maxPoemLines]
	}

	return poemPayload{
		Title:    title,
		Poem:     strings.Join(poemLines, "\n"),
		Analysis: defaultAnalysis,
	}
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}

	return false
}

func stringOr(value any, fallback string) string {
	if s, ok := value.(string); ok && s != "" {
		return s
	}

	return fallback
}
