package platform

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFromCallback(t *testing.T) {
	tests := []struct {
		name     string
		callback string
		expected string
		wantErr  bool
	}{
		{
			name:     "code in query",
			callback: "https://localhost:8080/callback?state=abc&code=the-code",
			expected: "the-code",
		},
		{
			name:     "code with url-encoded characters",
			callback: "http://localhost/?code=4%2F0AbCdEf",
			expected: "4/0AbCdEf",
		},
		{
			name:     "missing code",
			callback: "https://localhost:8080/callback?error=access_denied",
			wantErr:  true,
		},
		{
			name:     "not a url",
			callback: "://nope",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := codeFromCallback(tt.callback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestTerminalAuthorizer_CaptureCallback(t *testing.T) {
	t.Run("reads and trims the pasted url", func(t *testing.T) {
		var out bytes.Buffer
		auth := &TerminalAuthorizer{
			In:  strings.NewReader("  https://localhost/callback?code=abc  \n"),
			Out: &out,
		}

		callback, err := auth.CaptureCallback()
		require.NoError(t, err)
		assert.Equal(t, "https://localhost/callback?code=abc", callback)
		assert.Contains(t, out.String(), "paste the full redirect URL")
	})

	t.Run("accepts input without trailing newline", func(t *testing.T) {
		auth := &TerminalAuthorizer{
			In:  strings.NewReader("https://localhost/callback?code=abc"),
			Out: &bytes.Buffer{},
		}

		callback, err := auth.CaptureCallback()
		require.NoError(t, err)
		assert.Equal(t, "https://localhost/callback?code=abc", callback)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		auth := &TerminalAuthorizer{
			In:  strings.NewReader(""),
			Out: &bytes.Buffer{},
		}

		_, err := auth.CaptureCallback()
		assert.Error(t, err)
	})
}

func TestTerminalAuthorizer_Open(t *testing.T) {
	var out bytes.Buffer
	auth := &TerminalAuthorizer{In: strings.NewReader(""), Out: &out}

	err := auth.Open("https://provider.example/authorize?client_id=abc")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "https://provider.example/authorize?client_id=abc")
}
