package parser

import (
	"net/url"
	"time"
)

// PushField is one normalized measurement extracted from a device push
type PushField struct {
	Value float64
	Unit  string
}

// PushBatch is the normalized result of parsing one device push: the device
// identity plus every numeric measurement keyed by parameter name
type PushBatch struct {
	DeviceName  string
	DeviceModel string
	DeviceKind  string
	DateUTC     time.Time
	Fields      map[string]PushField
}

// Parser defines the interface for vendor-specific device push parsers.
// Firmware submits form-encoded values to a vendor endpoint; the parser
// normalizes them into parameters and SI-ish units.
type Parser interface {
	// GetEndpoint returns the HTTP endpoint path for this parser
	GetEndpoint() string

	// Parse converts submitted form values to a normalized batch
	Parse(params url.Values) (*PushBatch, error)

	// GetDeviceKind returns the device kind identifier
	GetDeviceKind() string
}

// Registry holds all registered parsers
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register adds a parser to the registry
func (r *Registry) Register(p Parser) {
	r.parsers[p.GetDeviceKind()] = p
}

// Get retrieves a parser by device kind
func (r *Registry) Get(deviceKind string) (Parser, bool) {
	p, ok := r.parsers[deviceKind]
	return p, ok
}

// All returns all registered parsers
func (r *Registry) All() []Parser {
	parsers := make([]Parser, 0, len(r.parsers))
	for _, p := range r.parsers {
		parsers = append(parsers, p)
	}
	return parsers
}
