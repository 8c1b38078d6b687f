package jsonutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeTolerant(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		strategy Strategy
		want     payload
	}{
		{
			name:     "strict JSON",
			raw:      `{"name":"summer","count":2}`,
			strategy: StrategyStrict,
			want:     payload{Name: "summer", Count: 2},
		},
		{
			name:     "strict JSON with whitespace",
			raw:      "\n  {\"name\":\"summer\",\"count\":2}\n",
			strategy: StrategyStrict,
			want:     payload{Name: "summer", Count: 2},
		},
		{
			name:     "markdown fenced",
			raw:      "```json\n{\"name\":\"fenced\",\"count\":1}\n```",
			strategy: StrategyFenced,
			want:     payload{Name: "fenced", Count: 1},
		},
		{
			name:     "fenced without language tag",
			raw:      "```\n{\"name\":\"fenced\",\"count\":3}\n```",
			strategy: StrategyFenced,
			want:     payload{Name: "fenced", Count: 3},
		},
		{
			name:     "embedded in prose",
			raw:      "Here is your plan:\n{\"name\":\"embedded\",\"count\":4}\nLet me know if you need changes.",
			strategy: StrategyExtracted,
			want:     payload{Name: "embedded", Count: 4},
		},
		{
			name:     "nested braces in strings",
			raw:      "Sure! {\"name\":\"tricky {brace}\",\"count\":5} done",
			strategy: StrategyExtracted,
			want:     payload{Name: "tricky {brace}", Count: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			strategy, err := DecodeTolerant(tt.raw, &got)
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, strategy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTolerantFailure(t *testing.T) {
	var got payload
	_, err := DecodeTolerant("the model refused to answer", &got)
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr), "expected *DecodeError, got %T", err)
}

func TestDecodeTolerantArray(t *testing.T) {
	var got []payload
	strategy, err := DecodeTolerant("results: [{\"name\":\"a\",\"count\":1}]", &got)
	require.NoError(t, err)
	assert.Equal(t, StrategyExtracted, strategy)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}
