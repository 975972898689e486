package code

import (
	"errors"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/json"
)

func TestFroze(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		want       ErrorCode
		statusCode int
	}{
		{
			name:       "with service prefix",
			code:       "DSF.4000000001",
			want:       ErrInvalidParam,
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "plain",
			code:       "4040000002",
			want:       ErrNotFound,
			statusCode: http.StatusNotFound,
		},
		{
			name:       "too short falls back to internal error",
			code:       "000",
			want:       ErrInternalServerError,
			statusCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Froze(tt.code, "")
			assert.True(t, errors.Is(got, tt.want), "Froze() = %v, want %v", got, tt.want)
			assert.Equal(t, tt.statusCode, got.StatusCode())
		})
	}
}

func TestAs(t *testing.T) {
	err := pkgerrors.WithStack(ErrNotFound.WithResult("order 1"))
	ec, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ec.StatusCode())
	assert.Equal(t, "order 1", ec.Result())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(ErrTooManyRequests.WithResult("slow down"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"4290000006","message":"too many requests","result":"slow down"}`, string(data))
}

func TestAddCode(t *testing.T) {
	assert.NoError(t, AddCode(map[ErrorCode]struct{}{
		Froze("4001100001", "a"): {},
	}))
	assert.Error(t, AddCode(map[ErrorCode]struct{}{
		Froze("4000000001", "duplicate"): {},
	}))
	assert.Error(t, AddCode(map[ErrorCode]struct{}{
		Froze("400123", "short"): {},
	}))
}
