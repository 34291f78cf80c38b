package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"unsupported", fmt.Errorf("parse name: %w", ErrUnsupportedFormat), "unsupported_format"},
		{"encoding", fmt.Errorf("read: %w", ErrEncoding), "encoding_error"},
		{"extraction", ErrExtraction, "extraction_failure"},
		{"provider", Provider("embed", errors.New("boom")), "provider_error"},
		{"index", ErrIndexBuild, "index_build_failure"},
		{"cancelled", Provider("chat", context.Canceled), "cancelled"},
		{"unknown", errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestProvider_KeepsCause(t *testing.T) {
	cause := errors.New("status 500")
	err := Provider("chat completion", cause)

	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Provider("noop", nil))
}

func TestUserMessage_SanitizesProvider(t *testing.T) {
	err := Provider("embed", errors.New(`401 Unauthorized {"code":"invalid_api_key"}`))
	assert.Equal(t, "the provider rejected the API key", UserMessage(err))

	err = Provider("embed", errors.New("internal detail with secrets"))
	assert.Equal(t, "the provider is temporarily unavailable", UserMessage(err))
}

func TestUserMessage_Taxonomy(t *testing.T) {
	assert.Contains(t, UserMessage(ErrUnsupportedFormat), "Unsupported file type")
	assert.Contains(t, UserMessage(fmt.Errorf("pdf: %w", ErrExtraction)), "pdf")
	assert.Empty(t, UserMessage(nil))
}
