// Package protocol encodes and decodes the tagged JSON messages exchanged
// with WebSocket clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Header is the discriminant carried in every message.
type Header string

const (
	HeaderSessionAssigned Header = "session-assigned"
	HeaderLivenessAck     Header = "liveness-ack"
	HeaderLivenessProbe   Header = "liveness-probe"
	HeaderSessionClose    Header = "session-close"
	HeaderAnalysisRequest Header = "analysis-request"
	HeaderAnalysisResult  Header = "analysis-result"

	// Headers spoken by the original browser client.
	LegacyHeaderKey      Header = "incoming_key"
	LegacyHeaderCallback Header = "callback_ping"
	LegacyHeaderClose    Header = "close"
	LegacyHeaderImage    Header = "incoming_image"
)

var (
	// ErrMalformed is returned when a frame is not a JSON object.
	ErrMalformed = errors.New("malformed message")

	// ErrMissingHeader is returned when a message has no header.
	ErrMissingHeader = errors.New("message has no header")

	// ErrUnknownHeader is returned when the header names no inbound message kind.
	ErrUnknownHeader = errors.New("unrecognised header")

	// ErrMissingSession is returned when a message carries no clientKey.
	ErrMissingSession = errors.New("message has no clientKey")

	// ErrMissingData is returned when an analysis request carries no CSV data.
	ErrMissingData = errors.New("analysis request has no data")
)

// envelope is the wire shape shared by all message kinds.
type envelope struct {
	Header    Header  `json:"header"`
	ClientKey string  `json:"clientKey"`
	Data      *string `json:"data,omitempty"`
	Infer     *bool   `json:"infer,omitempty"`
	ProdName  string  `json:"prodName,omitempty"`
	RevName   string  `json:"revName,omitempty"`
}

// InboundVisitor handles each client-to-server message kind. Adding a kind
// means adding a method here, so every router has to handle it.
type InboundVisitor interface {
	VisitLivenessAck(LivenessAck)
	VisitSessionClose(SessionClose)
	VisitAnalysisRequest(AnalysisRequest)
}

// Inbound is a decoded client-to-server message.
type Inbound interface {
	SessionID() string
	Accept(v InboundVisitor)
}

// Outbound is a server-to-client message.
type Outbound interface {
	SessionID() string
	toEnvelope(d Dialect) envelope
}

// LivenessAck acknowledges a liveness probe.
type LivenessAck struct {
	Session string
}

func (m LivenessAck) SessionID() string       { return m.Session }
func (m LivenessAck) Accept(v InboundVisitor) { v.VisitLivenessAck(m) }

// SessionClose asks the peer to close the session. It travels both ways.
type SessionClose struct {
	Session string
}

func (m SessionClose) SessionID() string       { return m.Session }
func (m SessionClose) Accept(v InboundVisitor) { v.VisitSessionClose(m) }

func (m SessionClose) toEnvelope(d Dialect) envelope {
	return envelope{Header: d.pick(HeaderSessionClose, LegacyHeaderClose), ClientKey: m.Session}
}

// AnalysisRequest asks for a sentiment analysis of a CSV payload.
type AnalysisRequest struct {
	Session      string
	CSV          string
	Infer        bool
	ProductField string
	ReviewField  string
}

func (m AnalysisRequest) SessionID() string       { return m.Session }
func (m AnalysisRequest) Accept(v InboundVisitor) { v.VisitAnalysisRequest(m) }

// SessionAssigned tells a new client its session identity.
type SessionAssigned struct {
	Session string
}

func (m SessionAssigned) SessionID() string { return m.Session }

func (m SessionAssigned) toEnvelope(d Dialect) envelope {
	return envelope{Header: d.pick(HeaderSessionAssigned, LegacyHeaderKey), ClientKey: m.Session}
}

// LivenessProbe asks the client to prove it is still there.
type LivenessProbe struct {
	Session string
}

func (m LivenessProbe) SessionID() string { return m.Session }

func (m LivenessProbe) toEnvelope(d Dialect) envelope {
	return envelope{Header: d.pick(HeaderLivenessProbe, LegacyHeaderCallback), ClientKey: m.Session}
}

// AnalysisResult carries the Analyzer output back to the requesting session.
// The payload is sent as a JSON string so clients parse it themselves.
type AnalysisResult struct {
	Session string
	Payload json.RawMessage
}

func (m AnalysisResult) SessionID() string { return m.Session }

func (m AnalysisResult) toEnvelope(d Dialect) envelope {
	data := string(m.Payload)
	return envelope{Header: d.pick(HeaderAnalysisResult, LegacyHeaderImage), ClientKey: m.Session, Data: &data}
}

// Dialect selects which header vocabulary is written on the wire.
type Dialect string

const (
	DialectStandard Dialect = "standard"
	DialectLegacy   Dialect = "legacy"
)

// ParseDialect parses a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectStandard, DialectLegacy:
		return Dialect(s), nil
	}
	return "", fmt.Errorf("unknown protocol dialect %q", s)
}

func (d Dialect) pick(standard, legacy Header) Header {
	if d == DialectLegacy {
		return legacy
	}
	return standard
}

// Encode serializes an outbound message.
func (d Dialect) Encode(msg Outbound) ([]byte, error) {
	return json.Marshal(msg.toEnvelope(d))
}

// Decode parses a client frame into an inbound message. Both the standard
// and the legacy header vocabulary are accepted.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Header == "" {
		return nil, ErrMissingHeader
	}

	switch env.Header {
	case HeaderLivenessAck, LegacyHeaderCallback:
		if env.ClientKey == "" {
			return nil, ErrMissingSession
		}
		return LivenessAck{Session: env.ClientKey}, nil
	case HeaderSessionClose, LegacyHeaderClose:
		if env.ClientKey == "" {
			return nil, ErrMissingSession
		}
		return SessionClose{Session: env.ClientKey}, nil
	case HeaderAnalysisRequest, LegacyHeaderImage:
		if env.ClientKey == "" {
			return nil, ErrMissingSession
		}
		if env.Data == nil || *env.Data == "" {
			return nil, ErrMissingData
		}
		req := AnalysisRequest{
			Session:      env.ClientKey,
			CSV:          *env.Data,
			ProductField: env.ProdName,
			ReviewField:  env.RevName,
		}
		if env.Infer != nil {
			req.Infer = *env.Infer
		}
		return req, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHeader, env.Header)
}
