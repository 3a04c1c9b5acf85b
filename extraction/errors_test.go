package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/openai/openai-go"
	"github.com/poiesic/tabulate/source"
	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"throttled", ErrThrottled, true},
		{"unavailable", ErrUnavailable, true},
		{"source unavailable", fmt.Errorf("%w: s3", source.ErrUnavailable), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"llm rate limit", llms.NewError(llms.ErrCodeRateLimit, "openai", "slow down"), true},
		{"llm timeout", llms.NewError(llms.ErrCodeTimeout, "bedrock", "timeout"), true},
		{"llm provider unavailable", llms.NewError(llms.ErrCodeProviderUnavailable, "openai", "down"), true},
		{"openai 429", &openai.Error{StatusCode: 429}, true},
		{"openai 503", &openai.Error{StatusCode: 503}, true},
		{"openai 400", &openai.Error{StatusCode: 400}, false},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"llm invalid request", llms.NewError(llms.ErrCodeInvalidRequest, "openai", "bad"), false},
		{"source not found", fmt.Errorf("%w: a.pdf", source.ErrNotFound), false},
		{"plain error", errors.New("unparseable document"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("document", tt.err)
			assert.ErrorIs(t, got, tt.err, "classified error must wrap the cause")
			assert.Equal(t, tt.wantTransient, IsTransient(got))
			assert.Equal(t, !tt.wantTransient, IsTaskFailure(got))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.NoError(t, Classify("x", nil))

	te := &TransientError{Service: "vision", Err: errors.New("x")}
	assert.Same(t, te, Classify("document", te))

	tf := &TaskFailure{Service: "vision", Err: errors.New("x")}
	assert.Same(t, tf, Classify("document", tf))

	canceled := Classify("x", context.Canceled)
	assert.Equal(t, context.Canceled, canceled)
	assert.False(t, IsTransient(canceled))
	assert.False(t, IsTaskFailure(canceled))
}

func TestErrorMessages(t *testing.T) {
	te := &TransientError{Service: "audio", Err: errors.New("busy")}
	assert.Equal(t, "audio: transient: busy", te.Error())

	tf := &TaskFailure{Service: "image", Err: errors.New("blurry")}
	assert.Equal(t, "image: task failed: blurry", tf.Error())
}
