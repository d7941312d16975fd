package convert

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

const testEndpoint = "https://llm.test/chat/completions"

type staticKeys struct {
	key string
}

func (s staticKeys) APIKey(context.Context) (string, error) {
	return s.key, nil
}

func newTestConverter(t *testing.T, key string) *APIConverter {
	t.Helper()

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	c := NewAPIConverter(
		staticKeys{key: key},
		slog.New(slog.DiscardHandler),
		WithHTTPClient(client),
		WithEndpoint(testEndpoint),
	)
	t.Cleanup(c.Close)
	return c
}

func completionBody(content string) string {
	quoted, _ := json.Marshal(content)
	return `{"choices":[{"message":{"content":` + string(quoted) + `}}]}`
}

func TestAPIConverter_MissingKeyFailsBeforeNetwork(t *testing.T) {
	c := newTestConverter(t, "")

	_, err := c.Convert(context.Background(), Request{Prompt: "convert this"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCredentialMissing)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestAPIConverter_ParsesCompletion(t *testing.T) {
	c := newTestConverter(t, "pplx-test-key")
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, completionBody(
			"```liquid\n<div>ok</div>\n```\n```json\n{\"name\":\"X\"}\n```",
		)))

	result, err := c.Convert(context.Background(), Request{Prompt: "convert this"})

	require.NoError(t, err)
	assert.Equal(t, "<div>ok</div>", result.Template)
	assert.Equal(t, `{"name":"X"}`, result.Schema)
	assert.True(t, result.Usable())
}

func TestAPIConverter_UnauthorizedMapsToCredentialMissing(t *testing.T) {
	c := newTestConverter(t, "pplx-revoked")
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`))

	_, err := c.Convert(context.Background(), Request{Prompt: "convert this"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCredentialMissing)
}

func TestAPIConverter_ServerErrorMapsToConversionFailed(t *testing.T) {
	c := newTestConverter(t, "pplx-test-key")
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusBadGateway, `{"message":"upstream busy"}`))

	_, err := c.Convert(context.Background(), Request{Prompt: "convert this"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConversionFailed)
	assert.Contains(t, err.Error(), "upstream busy")
}

func TestAPIConverter_EmptyChoicesFails(t *testing.T) {
	c := newTestConverter(t, "pplx-test-key")
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`))

	_, err := c.Convert(context.Background(), Request{Prompt: "convert this"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConversionFailed)
}

func TestAPIConverter_TestConnection(t *testing.T) {
	c := newTestConverter(t, "pplx-test-key")
	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, completionBody("ok")))

	assert.NoError(t, c.TestConnection(context.Background()))
}
