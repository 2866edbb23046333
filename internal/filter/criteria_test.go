package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_NormalizesAndDeduplicates(t *testing.T) {
	c, err := Compile(Criteria{
		Keywords:  []string{"Python DEV", "", "python dev", "  Go!  "},
		Locations: []string{"Cluj-Napoca", "", "BRAȘOV"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"python dev", "go"}, c.NormalizedKeywords())
	assert.Equal(t, []string{"cluj-napoca", "brașov"}, c.NormalizedLocations())
	assert.Equal(t, StrategySubstring, c.Strategy())
}

func TestCompile_RegexSkipsEmptyKeywords(t *testing.T) {
	c, err := Compile(Criteria{Keywords: []string{"", `go(lang)?`}, Strategy: StrategyRegex})
	require.NoError(t, err)
	assert.Len(t, c.patterns, 1)
}

func TestCompile_UnknownStrategy(t *testing.T) {
	_, err := Compile(Criteria{Strategy: Strategy(42)})
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategySubstring, false},
		{"substring", StrategySubstring, false},
		{"EXACT", StrategyExactTokens, false},
		{"regex", StrategyRegex, false},
		{"fuzzy", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCriteria)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategyFromFlags_RegexWins(t *testing.T) {
	assert.Equal(t, StrategySubstring, StrategyFromFlags(false, false))
	assert.Equal(t, StrategyExactTokens, StrategyFromFlags(true, false))
	assert.Equal(t, StrategyRegex, StrategyFromFlags(false, true))
	assert.Equal(t, StrategyRegex, StrategyFromFlags(true, true))
}

func TestPreset(t *testing.T) {
	c, ok := Preset("Romania")
	require.True(t, ok)
	assert.Equal(t, 30, c.MaxDaysOld)
	assert.Contains(t, c.Locations, "Timișoara")

	// Presets hand out fresh slices.
	c.Keywords[0] = "changed"
	again, _ := Preset("romania")
	assert.Equal(t, "Intern", again.Keywords[0])

	_, ok = Preset("mars")
	assert.False(t, ok)
	assert.Equal(t, []string{"remote", "romania"}, PresetNames())
}
