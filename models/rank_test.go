package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdering(t *testing.T) {
	assert.True(t, RankE < RankD)
	assert.True(t, RankA < RankS)
	assert.Equal(t, RankCount, int(RankS)+1)
}

func TestRankNext(t *testing.T) {
	next, ok := RankE.Next()
	assert.True(t, ok)
	assert.Equal(t, RankD, next)

	_, ok = RankS.Next()
	assert.False(t, ok)
}

func TestParseRank(t *testing.T) {
	tests := []struct {
		in      string
		want    Rank
		wantErr bool
	}{
		{"E", RankE, false},
		{"s", RankS, false},
		{" b ", RankB, false},
		{"Z", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRank(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankJSON(t *testing.T) {
	var body struct {
		Rank Rank `json:"rank"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rank":"C"}`), &body))
	assert.Equal(t, RankC, body.Rank)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"C"}`, string(out))

	_, err = json.Marshal(struct{ R Rank }{R: Rank(9)})
	assert.Error(t, err)
}
