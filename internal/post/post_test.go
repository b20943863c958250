package post

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlertTextPlainPost(t *testing.T) {
	p := &Post{ID: 1, Text: "plain body"}
	require.Equal(t, "plain body", p.AlertText())
}

func TestAlertTextShareExpansion(t *testing.T) {
	// For shares the wrapper text is persisted but the shared-from text
	// is what alerting evaluates.
	p := &Post{
		ID:   2,
		Text: "RT @orig: plain bo...",
		Shared: &Shared{
			AuthorHandle: "orig",
			Text:         "plain body with the full content",
		},
	}
	require.Equal(t, "plain body with the full content", p.AlertText())
	require.Equal(t, "RT @orig: plain bo...", p.Text)
}
