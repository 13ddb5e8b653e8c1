package coverletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Tone
		wantErr bool
	}{
		{name: "empty defaults to professional", input: "", want: ToneProfessional},
		{name: "professional", input: "professional", want: ToneProfessional},
		{name: "friendly", input: "friendly", want: ToneFriendly},
		{name: "concise", input: "concise", want: ToneConcise},
		{name: "unknown tone", input: "sarcastic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tone, err := ParseTone(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tone)
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
