package analyzer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

var (
	positiveWords = wordSet(
		"good", "great", "excellent", "amazing", "awesome", "love", "loved", "loves",
		"perfect", "best", "nice", "happy", "fantastic", "wonderful", "recommend",
		"recommended", "delicious", "tasty", "fresh", "favorite", "favourite", "pleased",
		"satisfied", "quality", "easy", "fast", "beautiful", "comfortable", "worth",
		"enjoy", "enjoyed", "superb", "brilliant", "yummy", "reliable", "sturdy",
		"impressed", "pleasant", "fine", "well",
	)
	negativeWords = wordSet(
		"bad", "terrible", "awful", "horrible", "worst", "hate", "hated", "poor",
		"disappointed", "disappointing", "broken", "waste", "refund", "return",
		"returned", "stale", "bland", "gross", "cheap", "useless", "slow", "wrong",
		"defective", "damaged", "expensive", "overpriced", "rude", "problem",
		"problems", "fail", "failed", "sick", "nasty", "junk", "mediocre", "avoid",
		"flimsy", "leaked", "leaking", "annoying",
	)
	negators = wordSet("not", "no", "never", "nor", "hardly", "without", "isn't", "wasn't",
		"don't", "doesn't", "didn't", "can't", "won't", "aren't", "weren't", "couldn't", "wouldn't")

	productKeywords = []string{"product", "item", "name", "title", "brand", "model", "sku"}
	reviewKeywords  = []string{"review", "summary", "text", "comment", "feedback", "body", "content", "opinion", "description"}
)

// negationWindow is how many following words a negator flips.
const negationWindow = 3

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// LexiconAnalyzer classifies reviews with a fixed word lexicon.
type LexiconAnalyzer struct{}

// NewLexiconAnalyzer creates a new LexiconAnalyzer.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

// Analyze implements Analyzer.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, in Input) json.RawMessage {
	header, rows, err := readCSV(in.CSV)
	if err != nil {
		return EncodeFailure(err.Error(), false)
	}

	var prodIdx, revIdx int
	if in.Infer {
		prodIdx, revIdx, err = inferColumns(header, rows)
		if err != nil {
			return EncodeFailure(err.Error(), true)
		}
	} else {
		prodIdx, revIdx, err = selectColumns(header, in.ProductField, in.ReviewField)
		if err != nil {
			return EncodeFailure(err.Error(), false)
		}
	}

	report := Report{}
	for i, row := range rows {
		if i%256 == 0 && ctx.Err() != nil {
			return EncodeFailure("analysis cancelled", false)
		}
		product, review := field(row, prodIdx), field(row, revIdx)
		if product == "" || review == "" {
			continue
		}
		pr, ok := report[product]
		if !ok {
			pr = &ProductReport{Sentiments: []Sentiment{}, Reviews: []string{}}
			report[product] = pr
		}
		pr.Sentiments = append(pr.Sentiments, Classify(review))
		pr.Reviews = append(pr.Reviews, review)
	}
	return EncodeReport(report)
}

// Classify scores a single review.
func Classify(text string) Sentiment {
	score := 0
	flip := 0
	for _, tok := range tokenize(text) {
		if _, ok := negators[tok]; ok {
			flip = negationWindow
			continue
		}
		polarity := 0
		if _, ok := positiveWords[tok]; ok {
			polarity = 1
		} else if _, ok := negativeWords[tok]; ok {
			polarity = -1
		}
		if flip > 0 {
			polarity = -polarity
			flip--
		}
		score += polarity
	}

	switch {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	}
	return Neutral
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

// readCSV reads a header and the data rows. Rows with more fields than the
// header are dropped; blank lines never reach the caller.
func readCSV(data string) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("No columns to parse from file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) > len(header) {
			continue
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// selectColumns requires exactly two header columns matching the given names.
func selectColumns(header []string, product, review string) (int, int, error) {
	matches := 0
	for _, name := range header {
		if name == product || name == review {
			matches++
		}
	}
	if matches < 2 {
		return 0, 0, errors.New("Provided names not found.")
	}
	if matches > 2 {
		return 0, 0, fmt.Errorf("Too many columns (%d) match provided names", matches)
	}

	prodIdx, revIdx := -1, -1
	for i, name := range header {
		if name == product && prodIdx == -1 {
			prodIdx = i
			continue
		}
		if name == review && revIdx == -1 {
			revIdx = i
		}
	}
	if prodIdx == -1 || revIdx == -1 {
		return 0, 0, errors.New("Provided names not found.")
	}
	return prodIdx, revIdx, nil
}

type columnShape struct {
	avgLen   float64
	distinct float64
	numeric  bool
}

// inferColumns picks the product and review columns, first by header
// keywords and then by the shape of the data.
func inferColumns(header []string, rows [][]string) (int, int, error) {
	if len(header) < 2 {
		return 0, 0, errors.New("Could not infer columns: at least two columns are required")
	}

	prodIdx := keywordColumn(header, productKeywords, -1)
	revIdx := keywordColumn(header, reviewKeywords, prodIdx)
	if prodIdx >= 0 && revIdx >= 0 {
		return prodIdx, revIdx, nil
	}
	if len(rows) == 0 {
		return 0, 0, errors.New("Could not infer columns: no data rows")
	}

	shapes := make([]columnShape, len(header))
	for col := range header {
		shapes[col] = shapeOf(rows, col)
	}

	if revIdx < 0 {
		for col, s := range shapes {
			if col == prodIdx || s.numeric || s.avgLen == 0 {
				continue
			}
			if revIdx < 0 || s.avgLen > shapes[revIdx].avgLen {
				revIdx = col
			}
		}
	}
	if prodIdx < 0 {
		for col, s := range shapes {
			if col == revIdx || s.numeric || s.avgLen == 0 {
				continue
			}
			if prodIdx < 0 || s.distinct < shapes[prodIdx].distinct {
				prodIdx = col
			}
		}
	}
	if prodIdx < 0 || revIdx < 0 {
		return 0, 0, errors.New("Could not infer product and review columns")
	}
	return prodIdx, revIdx, nil
}

func keywordColumn(header []string, keywords []string, skip int) int {
	for _, kw := range keywords {
		for i, name := range header {
			if i != skip && strings.Contains(strings.ToLower(name), kw) {
				return i
			}
		}
	}
	return -1
}

func shapeOf(rows [][]string, col int) columnShape {
	seen := make(map[string]struct{})
	total, filled := 0, 0
	numeric := true
	for _, row := range rows {
		v := field(row, col)
		if v == "" {
			continue
		}
		filled++
		total += len(v)
		seen[v] = struct{}{}
		if numeric && strings.IndexFunc(v, func(r rune) bool {
			return !unicode.IsDigit(r) && r != '.' && r != '-' && r != ','
		}) >= 0 {
			numeric = false
		}
	}
	if filled == 0 {
		return columnShape{numeric: true}
	}
	return columnShape{
		avgLen:   float64(total) / float64(filled),
		distinct: float64(len(seen)) / float64(filled),
		numeric:  numeric,
	}
}
