package textanalyzer_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/dailygate/pkg/workflows/textanalyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, inputs map[string]any) map[string]any {
	t.Helper()

	handler := textanalyzer.NewHandler(slog.Default())

	processed, err := handler.Preprocess(inputs)
	require.NoError(t, err)

	outputs, err := handler.Execute(context.Background(), processed, "admin")
	require.NoError(t, err)

	return outputs
}

func TestHandler_FullAnalysis(t *testing.T) {
	t.Parallel()

	outputs := analyze(t, map[string]any{
		"text": "The quick brown fox jumps over the lazy dog. It was a good day.",
	})

	assert.Contains(t, outputs, "basic_stats")
	assert.Contains(t, outputs, "keywords")
	assert.Contains(t, outputs, "sentiment")
	assert.Contains(t, outputs, "language")
	assert.Contains(t, outputs, "readability")
	assert.Contains(t, outputs, "summary")
}

func TestHandler_SentimentTieIsNeutral(t *testing.T) {
	t.Parallel()

	outputs := analyze(t, map[string]any{
		"text":          "I love this. I hate that.",
		"analysis_type": "情感分析",
	})

	assert.Equal(t, "中性", outputs["sentiment"])
}

func TestHandler_SentimentPolarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "positive english", text: "what a wonderful and happy day, love it", want: "积极"},
		{name: "negative english", text: "terrible awful day, everything went wrong", want: "消极"},
		{name: "positive chinese", text: "开心 完美 成功", want: "积极"},
		{name: "no sentiment words", text: "the report covers quarterly figures", want: "中性"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs := analyze(t, map[string]any{"text": tt.text, "analysis_type": "情感分析"})
			assert.Equal(t, tt.want, outputs["sentiment"])
		})
	}
}

func TestHandler_LanguageDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "english", text: "hello world this is english text", want: "英文"},
		{name: "chinese", text: "这是一段中文文本，用于检测语言", want: "中文"},
		{name: "no letters", text: "12345 !!!", want: "未知"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outputs := analyze(t, map[string]any{"text": tt.text, "analysis_type": "语言检测"})
			assert.Equal(t, tt.want, outputs["language"])
		})
	}
}

func TestHandler_KeywordsExcludeStopWordsAndShortWords(t *testing.T) {
	t.Parallel()

	outputs := analyze(t, map[string]any{
		"text":          "database database database index index cache the and for it is",
		"analysis_type": "关键词提取",
	})

	keywords, ok := outputs["keywords"].([]string)
	require.True(t, ok)
	require.NotEmpty(t, keywords)

	assert.Equal(t, "database", keywords[0], "most frequent keyword ranks first")
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "it", "words of two characters or fewer are dropped")
}

func TestHandler_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := map[string]any{
		"text": "Consistency matters. The same text always produces the same analysis result.",
	}

	first := analyze(t, inputs)
	second := analyze(t, inputs)

	assert.Equal(t, first["basic_stats"], second["basic_stats"])
	assert.Equal(t, first["keywords"], second["keywords"])
	assert.Equal(t, first["sentiment"], second["sentiment"])
	assert.Equal(t, first["language"], second["language"])
	assert.Equal(t, first["summary"], second["summary"])
}

func TestHandler_BasicStatsOnly(t *testing.T) {
	t.Parallel()

	outputs := analyze(t, map[string]any{
		"text":          "One sentence here. Another one follows!",
		"analysis_type": "基础统计",
	})

	assert.Contains(t, outputs, "basic_stats")
	assert.NotContains(t, outputs, "keywords")
	assert.NotContains(t, outputs, "sentiment")
	assert.Contains(t, outputs, "summary")
}

func TestHandler_IncludeDetailsToggle(t *testing.T) {
	t.Parallel()

	outputs := analyze(t, map[string]any{
		"text":            "Short text.",
		"include_details": false,
	})

	assert.NotContains(t, outputs, "readability")
}

func TestHandler_PostprocessAddsTimestamp(t *testing.T) {
	t.Parallel()

	handler := textanalyzer.NewHandler(slog.Default())

	outputs, err := handler.Postprocess(map[string]any{"summary": "done"})
	require.NoError(t, err)
	assert.Contains(t, outputs, "analyzed_at")
}
