package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelErrorFormatting(t *testing.T) {
	err := New(CategoryFlowise, SeverityError, "prediction failed").
		WithContext("chatflow_id", "cf-1")

	assert.Equal(t, "flowise (error): prediction failed", err.Error())
	assert.Equal(t, "cf-1", err.Context["chatflow_id"])
	assert.False(t, err.Retryable)
}

func TestPanelErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapRetryable(cause, CategoryNetwork, SeverityWarning, "service unreachable")

	require.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.True(t, IsCategory(err, CategoryNetwork))
	assert.Equal(t, CategoryNetwork, GetCategory(err))
}

func TestGetCategoryFallback(t *testing.T) {
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := Retryable(CategoryFlowise, SeverityWarning, "prediction timed out")
	wrapped := fmt.Errorf("loading workflow list: %w", inner)

	assert.True(t, IsCategory(wrapped, CategoryFlowise))
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, CategoryFlowise, GetCategory(wrapped))
}

func TestHTTPAdapterStatusCodes(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ValidationError("bad input"), http.StatusBadRequest},
		{ConfigRequired("services.flowise.base_url"), http.StatusBadRequest},
		{ServiceOffline("flowise", stderrors.New("refused")), http.StatusBadGateway},
		{LLMError("no model"), http.StatusBadGateway},
		{StoreError("append", stderrors.New("locked")), http.StatusInternalServerError},
		{DaemonError("not started"), http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, adapter.StatusCodeFor(tc.err))
	}
}

func TestHTTPAdapterWriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()

	adapter.WriteErrorResponse(rec, FlowiseError("chatflow missing").WithContext("chatflow_id", "cf-9"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"error":"chatflow missing","code":"flowise","details":{"chatflow_id":"cf-9"}}`,
		rec.Body.String())
}

func TestCLIAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	assert.Equal(t, 0, adapter.ExitCodeFor(nil))
	assert.Equal(t, 2, adapter.ExitCodeFor(ValidationError("bad")))
	assert.Equal(t, 7, adapter.ExitCodeFor(ConfigNotFound("/etc/panel.yaml")))
	assert.Equal(t, 8, adapter.ExitCodeFor(EngineError("down")))
	assert.Equal(t, 11, adapter.ExitCodeFor(StackError("compose up", stderrors.New("exit 1"))))
	assert.Equal(t, 1, adapter.ExitCodeFor(stderrors.New("plain")))
}

func TestCLIAdapterFormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	err := Wrap(stderrors.New("dial tcp"), CategoryLLM, SeverityError, "chat completion failed")
	assert.Equal(t, "llm: chat completion failed", quiet.FormatError(err))
	assert.Contains(t, verbose.FormatError(err), "dial tcp")

	cfg := ConfigRequired("server.dashboard_port")
	assert.Equal(t, "required configuration missing", quiet.FormatError(cfg))
}
