package poem_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/dailygate/pkg/llm"
	"github.com/dukex/dailygate/pkg/workflows/poem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	response *llm.CompletionResponse
	err      error

	lastRequest llm.CompletionRequest
}

func (c *stubClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.lastRequest = req

	if c.err != nil {
		return nil, c.err
	}

	return c.response, nil
}

func execute(t *testing.T, client *stubClient, inputs map[string]any) map[string]any {
	t.Helper()

	handler := poem.NewHandler(client, slog.Default())

	processed, err := handler.Preprocess(inputs)
	require.NoError(t, err)

	outputs, err := handler.Execute(context.Background(), processed, "admin")
	require.NoError(t, err)

	return outputs
}

func TestHandler_ParsesJSONResponse(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: &llm.CompletionResponse{
		Content:    `{"title": "《春天》", "poem": "春风拂面\n柳絮纷飞", "analysis": "以春天为主题"}`,
		TokensUsed: 210,
	}}

	outputs := execute(t, client, map[string]any{"theme": "春天"})

	assert.Equal(t, "《春天》", outputs["title"])
	assert.Equal(t, "春风拂面\n柳絮纷飞", outputs["poem"])
	assert.Equal(t, "以春天为主题", outputs["analysis"])
	assert.Equal(t, 210, outputs["tokens_used"])

	metadata, ok := outputs["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "春天", metadata["theme"])
	assert.Equal(t, 2, metadata["line_count"])
}

func TestHandler_StripsMarkdownFence(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: &llm.CompletionResponse{
		Content: "```json\n{\"title\": \"《海》\", \"poem\": \"浪花\", \"analysis\": \"x\"}\n```",
	}}

	outputs := execute(t, client, map[string]any{"theme": "海"})

	assert.Equal(t, "《海》", outputs["title"])
	assert.Equal(t, "浪花", outputs["poem"])
}

func TestHandler_FallbackParseOnProse(t *testing.T) {
	t.Parallel()

	content := "标题：《月光》\n银色的月光\n洒在窗台上\n\n分析：这首诗描绘夜晚"
	client := &stubClient{response: &llm.CompletionResponse{Content: content}}

	outputs := execute(t, client, map[string]any{"theme": "月光"})

	assert.Equal(t, "标题：《月光》", outputs["title"])
	assert.Equal(t, "银色的月光\n洒在窗台上", outputs["poem"], "analysis lines are filtered out")
	assert.Equal(t, "基于主题创作的诗歌作品", outputs["analysis"])
}

func TestHandler_FallbackDefaultsWhenUnparseable(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: &llm.CompletionResponse{Content: "json\n```"}}

	outputs := execute(t, client, map[string]any{"theme": "秋天"})

	assert.Equal(t, "《秋天》", outputs["title"])
	assert.Equal(t, "基于主题创作的诗歌作品", outputs["analysis"])
}

func TestHandler_PromptCarriesStyleAndLength(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: &llm.CompletionResponse{
		Content: `{"title": "t", "poem": "p", "analysis": "a"}`,
	}}

	execute(t, client, map[string]any{"theme": "山", "style": "绝句", "length": "短诗"})

	assert.Contains(t, client.lastRequest.Prompt, "绝句")
	assert.Contains(t, client.lastRequest.Prompt, "4-8行")
	assert.Equal(t, 1000, client.lastRequest.MaxTokens)
	assert.InDelta(t, 0.8, client.lastRequest.Temperature, 0.001)
}

func TestHandler_DefaultsApplied(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: &llm.CompletionResponse{
		Content: `{"title": "t", "poem": "p", "analysis": "a"}`,
	}}

	outputs := execute(t, client, map[string]any{"theme": "  风  "})

	assert.Contains(t, client.lastRequest.Prompt, "现代")
	assert.Contains(t, client.lastRequest.Prompt, "12-20行")

	metadata, ok := outputs["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "风", metadata["theme"], "theme is trimmed in preprocessing")
}

func TestHandler_ClientErrorPropagates(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: errors.New("connection refused")}
	handler := poem.NewHandler(client, slog.Default())

	_, err := handler.Execute(context.Background(), map[string]any{"theme": "雨"}, "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poem generation failed")
}

func TestHandler_PostprocessStripsBlankLines(t *testing.T) {
	t.Parallel()

	handler := poem.NewHandler(&stubClient{}, slog.Default())

	outputs, err := handler.Postprocess(map[string]any{"poem": "  第一行  \n\n第二行\n   \n"})
	require.NoError(t, err)
	assert.Equal(t, "第一行\n第二行", outputs["poem"])
}
