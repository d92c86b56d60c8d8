package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInput_HasManualContent verifies manual content requires both the
// paywall flag and an excerpt
func TestInput_HasManualContent(t *testing.T) {
	assert.True(t, Input{IsPaywalled: true, ManualExcerpt: "text"}.HasManualContent())
	assert.False(t, Input{IsPaywalled: true}.HasManualContent())
	assert.False(t, Input{ManualExcerpt: "text"}.HasManualContent())
}

// TestExtractedContent_Usable verifies the headline and length gate
func TestExtractedContent_Usable(t *testing.T) {
	long := strings.Repeat("a", MinContentLength)

	assert.True(t, (&ExtractedContent{Headline: "Headline", Content: long}).Usable())
	assert.False(t, (&ExtractedContent{Headline: "", Content: long}).Usable())
	assert.False(t, (&ExtractedContent{Headline: "Headline", Content: long[1:]}).Usable())

	accented := strings.Repeat("é", MinContentLength)
	assert.True(t, (&ExtractedContent{Headline: "Headline", Content: accented}).Usable())
	assert.False(t, (&ExtractedContent{Headline: "Headline", Content: strings.Repeat("é", MinContentLength-1)}).Usable())

	var nilContent *ExtractedContent
	assert.False(t, nilContent.Usable())
}

// TestFetchError_Error verifies the error string includes type and message
func TestFetchError_Error(t *testing.T) {
	err := NewFetchError(ErrTimeout, "Request timed out after 10 seconds")

	assert.Equal(t, "TIMEOUT: Request timed out after 10 seconds", err.Error())
	assert.True(t, err.RequiresManualInput)
}
