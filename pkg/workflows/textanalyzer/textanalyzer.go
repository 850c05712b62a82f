// Package textanalyzer implements the local text analysis workflow.
// All analysis is heuristic and deterministic; no external calls.
package textanalyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dukex/dailygate/pkg/models"
)

const (
	analysisBasicStats = "基础统计"
	analysisKeywords   = "关键词提取"
	analysisSentiment  = "情感分析"
	analysisLanguage   = "语言检测"
	analysisFull       = "全面分析"

	sentimentPositive = "积极"
	sentimentNegative = "消极"
	sentimentNeutral  = "中性"

	languageChinese = "中文"
	languageEnglish = "英文"
	languageMixed   = "混合语言"
	languageUnknown = "未知"

	maxKeywords        = 10
	summaryKeywordCap  = 5
	minKeywordRuneSize = 2
)

var (
	wordRE        = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceRE    = regexp.MustCompile(`[.!?。！？]`)
	chineseRE     = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	englishRE     = regexp.MustCompile(`[a-zA-Z]`)
	blankLinesRE  = regexp.MustCompile(`\n\s*\n`)
	stopWords     = buildSet(chineseStopWords, englishStopWords)
	positiveWords = buildSet(chinesePositive, englishPositive)
	negativeWords = buildSet(chineseNegative, englishNegative)
)

var chineseStopWords = []string{
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "个", "上", "也", "很", "到", "说", "要",
	"去", "你", "会", "着", "没有", "看", "好", "自己", "这", "那", "来", "他", "她", "它", "我们", "你们", "他们",
}

var englishStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "this", "that",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did", "will", "would",
}

var chinesePositive = []string{
	"好", "棒", "优秀", "美好", "快乐", "开心", "喜欢", "爱", "赞", "完美", "成功", "胜利", "希望",
}

var englishPositive = []string{
	"good", "great", "excellent", "amazing", "wonderful", "happy", "love", "like", "perfect", "success",
}

var chineseNegative = []string{
	"坏", "差", "糟糕", "失败", "痛苦", "悲伤", "讨厌", "恨", "困难", "问题", "错误", "危险",
}

var englishNegative = []string{
	"bad", "terrible", "awful", "hate", "sad", "angry", "problem", "error", "fail", "wrong",
}

// Handler analyzes text with local heuristics. Identical inputs always
// produce identical outputs, save the analyzed_at timestamp.
type Handler struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger.With("module", "workflow", "workflow", "text_analyzer"),
		now:    time.Now,
	}
}

func (h *Handler) Name() string        { return "text_analyzer" }
func (h *Handler) Description() string { return "文本内容分析与统计" }
func (h *Handler) Version() string     { return "1.0.0" }

func (h *Handler) InputSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:        "object",
		Description: "输入要分析的文本内容",
		Properties: map[string]*models.Property{
			"text": {
				Type:        "string",
				Format:      "textarea",
				Description: "待分析的文本内容",
				MinLength:   models.IntPtr(1),
				MaxLength:   models.IntPtr(10000),
				Placeholder: "请输入要分析的文本内容...",
			},
			"analysis_type": {
				Type:        "string",
				Description: "分析类型",
				Enum:        []any{analysisBasicStats, analysisKeywords, analysisSentiment, analysisLanguage, analysisFull},
				Default:     analysisFull,
			},
			"include_details": {
				Type:        "boolean",
				Description: "包含详细分析",
				Default:     true,
			},
		},
		Required:             []string{"text"},
		AdditionalProperties: false,
	}
}

func (h *Handler) OutputSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type: "object",
		Properties: map[string]*models.Property{
			"basic_stats": {
				Type:        "object",
				Description: "基础统计信息",
				Properties: map[string]*models.Property{
					"char_count":      {Type: "integer"},
					"word_count":      {Type: "integer"},
					"sentence_count":  {Type: "integer"},
					"paragraph_count": {Type: "integer"},
				},
			},
			"keywords": {
				Type:        "array",
				Description: "提取的关键词",
				Items:       &models.Property{Type: "string"},
			},
			"sentiment": {
				Type:        "string",
				Description: "情感倾向",
			},
			"language": {
				Type:        "string",
				Description: "检测到的语言",
			},
			"readability": {
				Type:        "object",
				Description: "可读性分析",
			},
			"summary": {
				Type:        "string",
				Description: "分析摘要",
			},
		},
		Required: []string{"basic_stats", "summary"},
	}
}

// Preprocess trims the text and collapses runs of blank lines.
func (h *Handler) Preprocess(inputs map[string]any) (map[string]any, error) {
	processed := make(map[string]any, len(inputs))
	for k, v := range inputs {
		processed[k] = v
	}

	if text, ok := processed["text"].(string); ok {
		text = strings.TrimSpace(text)
		processed["text"] = blankLinesRE.ReplaceAllString(text, "\n\n")
	}

	return processed, nil
}

func (h *Handler) Execute(ctx context.Context, inputs map[string]any, identity string) (map[string]any, error) {
	text, _ := inputs["text"].(string)

	analysisType, _ := inputs["analysis_type"].(string)
	if analysisType == "" {
		analysisType = analysisFull
	}

	includeDetails := true
	if v, ok := inputs["include_details"].(bool); ok {
		includeDetails = v
	}

	h.logger.Info("Analyzing text", "identity", identity, "analysis_type", analysisType)

	result := make(map[string]any)

	if analysisType == analysisBasicStats || analysisType == analysisFull {
		result["basic_stats"] = basicStatistics(text)
	}

	if analysisType == analysisKeywords || analysisType == analysisFull {
		result["keywords"] = extractKeywords(text)
	}

	if analysisType == analysisSentiment || analysisType == analysisFull {
		result["sentiment"] = sentimentOf(text)
	}

	if analysisType == analysisLanguage || analysisType == analysisFull {
		result["language"] = detectLanguage(text)
	}

	if analysisType == analysisFull && includeDetails {
		result["readability"] = readability(text)
	}

	result["summary"] = buildSummary(result)

	return result, nil
}

// Postprocess stamps the result with the analysis time.
func (h *Handler) Postprocess(outputs map[string]any) (map[string]any, error) {
	outputs["analyzed_at"] = h.now().Format(time.RFC3339)

	return outputs, nil
}

type basicStats struct {
	CharCount           int     `json:"char_count"`
	CharCountNoSpaces   int     `json:"char_count_no_spaces"`
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	ParagraphCount      int     `json:"paragraph_count"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	AvgCharsPerWord     float64 `json:"avg_chars_per_word"`
}

func basicStatistics(text string) basicStats {
	charCount := len([]rune(text))

	compact := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(text)
	charCountNoSpaces := len([]rune(compact))

	wordCount := len(wordRE.FindAllString(text, -1))

	sentenceCount := 0

	for _, sentence := range sentenceRE.Split(text, -1) {
		if strings.TrimSpace(sentence) != "" {
			sentenceCount++
		}
	}

	paragraphCount := 0

	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) != "" {
			paragraphCount++
		}
	}

	var avgWordsPerSentence, avgCharsPerWord float64

	if sentenceCount > 0 {
		avgWordsPerSentence = round2(float64(wordCount) / float64(sentenceCount))
	}

	if wordCount > 0 {
		avgCharsPerWord = round2(float64(charCountNoSpaces) / float64(wordCount))
	}

	return basicStats{
		CharCount:           charCount,
		CharCountNoSpaces:   charCountNoSpaces,
		WordCount:           wordCount,
		SentenceCount:       sentenceCount,
		ParagraphCount:      paragraphCount,
		AvgWordsPerSentence: avgWordsPerSentence,
		AvgCharsPerWord:     avgCharsPerWord,
	}
}

// extractKeywords ranks non-stop words longer than two runes by
// frequency. Ties keep first-occurrence order so output is stable.
func extractKeywords(text string) []string {
	words := wordRE.FindAllString(strings.ToLower(text), -1)

	freq := make(map[string]int)
	order := make([]string, 0)

	for _, word := range words {
		if len([]rune(word)) <= minKeywordRuneSize || stopWords[word] {
			continue
		}

		if _, seen := freq[word]; !seen {
			order = append(order, word)
		}

		freq[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	return order
}

func sentimentOf(text string) string {
	words := wordRE.FindAllString(strings.ToLower(text), -1)

	positive, negative := 0, 0

	for _, word := range words {
		if positiveWords[word] {
			positive++
		}

		if negativeWords[word] {
			negative++
		}
	}

	switch {
	case positive > negative:
		return sentimentPositive
	case negative > positive:
		return sentimentNegative
	default:
		return sentimentNeutral
	}
}

func detectLanguage(text string) string {
	chinese := len(chineseRE.FindAllString(text, -1))
	english := len(englishRE.FindAllString(text, -1))

	total := chinese + english
	if total == 0 {
		return languageUnknown
	}

	switch {
	case float64(chinese)/float64(total) > 0.5:
		return languageChinese
	case english > chinese:
		return languageEnglish
	default:
		return languageMixed
	}
}

type readabilityReport struct {
	Score             int     `json:"score"`
	Level             string  `json:"level"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`
}

func readability(text string) readabilityReport {
	stats := basicStatistics(text)

	report := readabilityReport{
		AvgSentenceLength: stats.AvgWordsPerSentence,
		AvgWordLength:     stats.AvgCharsPerWord,
	}

	switch {
	case stats.AvgWordsPerSentence > 20 || stats.AvgCharsPerWord > 6:
		report.Score, report.Level = 30, "困难"
	case stats.AvgWordsPerSentence > 15 || stats.AvgCharsPerWord > 5:
		report.Score, report.Level = 60, "中等"
	default:
		report.Score, report.Level = 90, "简单"
	}

	return report
}

func buildSummary(result map[string]any) string {
	parts := make([]string, 0, 5)

	if stats, ok := result["basic_stats"].(basicStats); ok {
		parts = append(parts, fmt.Sprintf(
			"文本包含 %d 个字符，%d 个词语，%d 个句子，%d 个段落。",
			stats.CharCount, stats.WordCount, stats.SentenceCount, stats.ParagraphCount))
	}

	if sentiment, ok := result["sentiment"].(string); ok {
		parts = append(parts, fmt.Sprintf("整体情感倾向：%s。", sentiment))
	}

	if language, ok := result["language"].(string); ok {
		parts = append(parts, fmt.Sprintf("检测语言：%s。", language))
	}

	if keywords, ok := result["keywords"].([]string); ok {
		top := keywords
		if len(top) > summaryKeywordCap {
			top = top[:summaryKeywordCap]
		}

		if len(top) > 0 {
			parts = append(parts, fmt.Sprintf("主要关键词：%s。", strings.Join(top, ", ")))
		}
	}

	if report, ok := result["readability"].(readabilityReport); ok {
		parts = append(parts, fmt.Sprintf("可读性评估：%s（得分：%d）。", report.Level, report.Score))
	}

	if len(parts) == 0 {
		parts = append(parts, "文本分析完成。")
	}

	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildSet(groups ...[]string) map[string]bool {
	set := make(map[string]bool)

	for _, group := range groups {
		for _, word := range group {
			set[word] = true
		}
	}

	return set
}
