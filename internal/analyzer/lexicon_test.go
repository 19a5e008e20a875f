package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, in Input) (Report, *Failure) {
	t.Helper()
	payload := NewLexiconAnalyzer().Analyze(context.Background(), in)
	if f, ok := FailureOf(payload); ok {
		return nil, f
	}
	var r Report
	require.NoError(t, json.Unmarshal(payload, &r))
	return r, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Sentiment
	}{
		{"Great coffee, love it", Positive},
		{"Terrible. Arrived broken", Negative},
		{"It is a mug", Neutral},
		{"Not good at all", Negative},
		{"not bad", Positive},
		{"", Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestAnalyze_ExplicitColumns(t *testing.T) {
	csv := "id,product_name,Summary\n" +
		"1,Tea,Great taste\n" +
		"2,Coffee,Awful and stale\n" +
		"\n" +
		"3,Tea,It is tea\n" +
		"4,,orphan review\n" +
		"5,Coffee,too,many,fields\n"

	report, failure := analyze(t, Input{CSV: csv, ProductField: "product_name", ReviewField: "Summary"})
	require.Nil(t, failure)

	require.Contains(t, report, "Tea")
	assert.Equal(t, []Sentiment{Positive, Neutral}, report["Tea"].Sentiments)
	assert.Equal(t, []string{"Great taste", "It is tea"}, report["Tea"].Reviews)

	require.Contains(t, report, "Coffee")
	assert.Equal(t, []Sentiment{Negative}, report["Coffee"].Sentiments)
	assert.Len(t, report, 2)
}

func TestAnalyze_ColumnErrors(t *testing.T) {
	t.Run("names not found", func(t *testing.T) {
		_, failure := analyze(t, Input{CSV: "a,b\n1,2\n", ProductField: "a", ReviewField: "missing"})
		require.NotNil(t, failure)
		assert.Equal(t, "Provided names not found.", failure.Error)
		assert.False(t, failure.InferFailure)
	})

	t.Run("too many matches", func(t *testing.T) {
		_, failure := analyze(t, Input{CSV: "a,b,a\n1,2,3\n", ProductField: "a", ReviewField: "b"})
		require.NotNil(t, failure)
		assert.Equal(t, "Too many columns (3) match provided names", failure.Error)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, failure := analyze(t, Input{CSV: "", ProductField: "a", ReviewField: "b"})
		require.NotNil(t, failure)
	})
}

func TestAnalyze_InferByKeyword(t *testing.T) {
	csv := "Rating,Product Title,Review Text\n5,Lamp,Bright and beautiful\n1,Lamp,Broken on arrival\n"

	report, failure := analyze(t, Input{CSV: csv, Infer: true})
	require.Nil(t, failure)
	require.Contains(t, report, "Lamp")
	assert.Equal(t, []Sentiment{Positive, Negative}, report["Lamp"].Sentiments)
}

func TestAnalyze_InferByShape(t *testing.T) {
	csv := "col1,col2,col3\n" +
		"A,10,This one is really good and I would recommend it\n" +
		"A,11,Cheap junk that broke after one day of use\n" +
		"B,12,Works as described with no surprises here\n"

	report, failure := analyze(t, Input{CSV: csv, Infer: true})
	require.Nil(t, failure)
	assert.ElementsMatch(t, []string{"A", "B"}, keys(report))
	assert.Len(t, report["A"].Reviews, 2)
}

func TestAnalyze_InferFailure(t *testing.T) {
	_, failure := analyze(t, Input{CSV: "only\nvalue\n", Infer: true})
	require.NotNil(t, failure)
	assert.True(t, failure.InferFailure)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := NewLexiconAnalyzer().Analyze(ctx, Input{CSV: "p,r\nx,good\n", ProductField: "p", ReviewField: "r"})
	f, ok := FailureOf(payload)
	require.True(t, ok)
	assert.Equal(t, "analysis cancelled", f.Error)
}

func TestFailureOf(t *testing.T) {
	f, ok := FailureOf(EncodeFailure("boom", true))
	require.True(t, ok)
	assert.Equal(t, &Failure{Error: "boom", InferFailure: true}, f)

	_, ok = FailureOf(EncodeReport(Report{"error": {Sentiments: []Sentiment{Positive}, Reviews: []string{"ok"}}}))
	assert.False(t, ok, "a product named error is not a failure")

	_, ok = FailureOf(json.RawMessage(`not json`))
	assert.True(t, ok)
}

// Every analysis keeps sentiments and reviews index-aligned and counts
// exactly the rows that have both fields.
func TestReportShapeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	row := gen.Struct(reflect.TypeOf(csvRow{}), map[string]gopter.Gen{
		"Product": gen.OneConstOf("", "alpha", "beta", "gamma"),
		"Review":  gen.OneConstOf("", "good stuff", "bad stuff", "plain stuff", "not great"),
	})

	properties.Property("sentiments align with reviews", prop.ForAll(
		func(rows []csvRow) bool {
			var b strings.Builder
			b.WriteString("product,review\n")
			want := 0
			for _, r := range rows {
				fmt.Fprintf(&b, "%s,%s\n", r.Product, r.Review)
				if r.Product != "" && r.Review != "" {
					want++
				}
			}

			payload := NewLexiconAnalyzer().Analyze(context.Background(), Input{
				CSV: b.String(), ProductField: "product", ReviewField: "review",
			})
			var report Report
			if err := json.Unmarshal(payload, &report); err != nil {
				return false
			}

			got := 0
			for _, pr := range report {
				if len(pr.Sentiments) != len(pr.Reviews) {
					return false
				}
				got += len(pr.Reviews)
			}
			return got == want
		},
		gen.SliceOf(row),
	))

	properties.TestingRun(t)
}

type csvRow struct {
	Product string
	Review  string
}

func keys(r Report) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}
