package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr string
	}{
		{
			name:  "explicit day",
			value: "2026-03-01",
			want:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		{
			name:  "empty defaults to today at midnight",
			value: "",
			want:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		{
			name:    "wrong format",
			value:   "03/01/2026",
			wantErr: "invalid date",
		},
		{
			name:    "not a date",
			value:   "yesterday",
			wantErr: "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.value, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDListFlag_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    IDListFlag
		wantErr bool
	}{
		{
			name:  "single id",
			value: "3",
			want:  IDListFlag{3},
		},
		{
			name:  "multiple ids with spaces",
			value: "1, 2,3",
			want:  IDListFlag{1, 2, 3},
		},
		{
			name:  "empty yields empty non-nil list",
			value: "",
			want:  IDListFlag{},
		},
		{
			name:    "non numeric",
			value:   "1,abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := IDListFlag{}
			err := flag.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, flag)
			assert.NotNil(t, flag)
		})
	}
}

func TestIDListFlag_String(t *testing.T) {
	flag := IDListFlag{1, 2, 3}
	assert.Equal(t, "1,2,3", flag.String())

	empty := IDListFlag{}
	assert.Equal(t, "", empty.String())
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseIDArg("forty-two")
	assert.Error(t, err)
}

func TestFormatDay(t *testing.T) {
	millis := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2026-08-30", formatDay(millis))
}
