package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfLooksThroughWrapping(t *testing.T) {
	base := AuthError("credentials rejected or additional verification required", nil)
	wrapped := fmt.Errorf("login step: %w", base)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindAuth, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestScrapeErrorDetails(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := TargetUnavailable("navigation failed", cause)

	assert.Equal(t, "net::ERR_NAME_NOT_RESOLVED", err.Details())
	assert.Equal(t, "TargetUnavailable: navigation failed: net::ERR_NAME_NOT_RESOLVED", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, InvalidRequest("url is required").Details())
}

func TestAsScrapeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback ErrorKind
		want     ErrorKind
	}{
		{name: "deadline", err: context.DeadlineExceeded, fallback: KindExtraction, want: KindTargetUnavailable},
		{name: "cancelled", err: fmt.Errorf("wait: %w", context.Canceled), fallback: KindExtraction, want: KindTargetUnavailable},
		{name: "already typed", err: LaunchError("no chrome", nil), fallback: KindExtraction, want: KindLaunch},
		{name: "untyped uses fallback", err: errors.New("boom"), fallback: KindExtraction, want: KindExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := AsScrapeError(tt.err, tt.fallback, "step")
			require.NotNil(t, se)
			assert.Equal(t, tt.want, se.Kind)
		})
	}

	assert.Nil(t, AsScrapeError(nil, KindExtraction, "step"))
}
