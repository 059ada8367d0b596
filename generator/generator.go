package generator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/pkg/llms"
)

//go:generate mockgen -source=generator.go -destination=../mocks/mockgenerator/generator_mock.gen.go -package mockgenerator

const (
	// DefaultMaxNewTokens is used when the caller passes zero.
	DefaultMaxNewTokens = 256
	// DefaultTemperature is the sampling temperature.
	DefaultTemperature = 0.7
	// DefaultTopP is the nucleus sampling threshold.
	DefaultTopP = 0.95
)

var (
	// ErrNotReady is returned when the model could not be initialized.
	ErrNotReady = errors.New("generator is not ready")
	// ErrEmptyMessages is returned when Generate is called without messages.
	ErrEmptyMessages = errors.New("no messages to generate from")
)

// Generator produces one completion for an ordered list of messages.
type Generator interface {
	// Generate returns the whitespace-trimmed completion.
	Generate(ctx context.Context, messages []llms.Message, maxNewTokens int) (string, error)
}
