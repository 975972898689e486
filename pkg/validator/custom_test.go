package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sortQuery struct {
	Sort string `binding:"omitempty,sort"`
}

type limitsBody struct {
	Limits map[string]int64 `binding:"dive,keys,component,endkeys,gte=0"`
}

func TestOrderWithDBSort(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "empty", value: "", wantErr: false},
		{name: "one", value: "updated_at", wantErr: false},
		{name: "two with direction", value: "state asc,updated_at DESC", wantErr: false},
		{name: "injection", value: "state;drop table", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.ValidateStruct(&sortQuery{Sort: tt.value})
			assert.Equal(t, tt.wantErr, err != nil, "error: %v", err)
		})
	}
}

func TestComponentName(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	assert.NoError(t, engine.ValidateStruct(limitsBody{Limits: map[string]int64{"cores": 2, "ram_gb": 4}}))
	assert.Error(t, engine.ValidateStruct(limitsBody{Limits: map[string]int64{"Cores": 2}}))
	assert.Error(t, engine.ValidateStruct(limitsBody{Limits: map[string]int64{"cores": -1}}))
}
