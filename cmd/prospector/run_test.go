package main

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/prospector/internal/logging"
)

func TestPlayEpisodes(t *testing.T) {
	opts := episodeOptions{Episodes: 3, Size: 64, Budget: 60, Peaks: 3, Seed: 11}
	summary, err := playEpisodes(opts, logging.New(logging.ErrorLevel, io.Discard))
	require.NoError(t, err)
	require.Len(t, summary.Episodes, 3)

	for i, e := range summary.Episodes {
		assert.Equal(t, int64(11+i), e.Seed)
		assert.LessOrEqual(t, e.Queries, 60)
		assert.LessOrEqual(t, e.Value, e.FieldMax)
		assert.GreaterOrEqual(t, e.Ratio, 0.0)
		assert.LessOrEqual(t, e.Ratio, 1.0)
		assert.Positive(t, e.Restarts)
	}
	assert.InDelta(t, (summary.Episodes[0].Ratio+summary.Episodes[1].Ratio+summary.Episodes[2].Ratio)/3, summary.MeanRatio, 1e-12)

	// Episodes are reproducible from their seed
	again, err := playEpisodes(opts, logging.New(logging.ErrorLevel, io.Discard))
	require.NoError(t, err)
	assert.Equal(t, summary.Episodes, again.Episodes)
}

func TestPlayEpisodesRejectsBadOptions(t *testing.T) {
	_, err := playEpisodes(episodeOptions{Episodes: 0, Size: 64, Budget: 10, Peaks: 1}, logging.New(logging.ErrorLevel, io.Discard))
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--episodes", "2", "--size", "48", "--budget", "40", "--peaks", "2", "--json", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	var summary runSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Len(t, summary.Episodes, 2)

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "prospector version "+version+"\n", out.String())
}
