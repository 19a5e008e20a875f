// Package analyzer turns a CSV of product reviews into a per-product
// sentiment report.
//
// The Analyzer contract never fails loudly: every problem is encoded in the
// returned JSON payload as {"error": ..., "inferFailure": ...}.
package analyzer

import (
	"context"
	"encoding/json"
)

// Sentiment is the classification of one review.
type Sentiment string

const (
	Positive Sentiment = "p"
	Negative Sentiment = "n"
	Neutral  Sentiment = "e"
)

// Input is one analysis request.
type Input struct {
	CSV          string
	Infer        bool
	ProductField string
	ReviewField  string
}

// ProductReport holds the reviews of one product and their sentiments, in
// input order.
type ProductReport struct {
	Sentiments []Sentiment `json:"sentiments"`
	Reviews    []string    `json:"reviews"`
}

// Report maps product names to their reports.
type Report map[string]*ProductReport

// Failure is the payload returned when analysis could not be performed.
type Failure struct {
	Error        string `json:"error"`
	InferFailure bool   `json:"inferFailure"`
}

// Analyzer produces a report payload for an input.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) json.RawMessage
}

// Func adapts a plain function to the Analyzer interface.
type Func func(ctx context.Context, in Input) json.RawMessage

// Analyze calls f(ctx, in).
func (f Func) Analyze(ctx context.Context, in Input) json.RawMessage {
	return f(ctx, in)
}

// EncodeFailure builds a failure payload.
func EncodeFailure(msg string, inferFailure bool) json.RawMessage {
	data, err := json.Marshal(Failure{Error: msg, InferFailure: inferFailure})
	if err != nil {
		return json.RawMessage(`{"error":"internal error","inferFailure":false}`)
	}
	return data
}

// EncodeReport builds a success payload.
func EncodeReport(r Report) json.RawMessage {
	if r == nil {
		r = Report{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return EncodeFailure(err.Error(), false)
	}
	return data
}

// FailureOf reports whether payload is a failure payload and returns it.
func FailureOf(payload json.RawMessage) (*Failure, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return &Failure{Error: "analyzer returned invalid JSON"}, true
	}

	// A product may itself be called "error"; only a string value marks a failure.
	var f Failure
	if raw, ok := fields["error"]; !ok || json.Unmarshal(raw, &f.Error) != nil {
		return nil, false
	}
	if raw, ok := fields["inferFailure"]; ok {
		_ = json.Unmarshal(raw, &f.InferFailure)
	}
	return &f, true
}
