package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleValues(t *testing.T) {
	cmd := NewSampleCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, documentPath("fade.yaml"), "--key", "opacity", "--at", "0", "--at", "500", "--at", "5000")
	require.NoError(t, err)

	assert.Contains(t, out, "t=0 opacity: 0\n")
	assert.Contains(t, out, "t=500 opacity: 5\n")
	assert.Contains(t, out, "t=5000 opacity: 10\n")
}

func TestSampleValuesJSON(t *testing.T) {
	cmd := NewSampleCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, documentPath("fade.yaml"), "--target", "box", "--key", "opacity", "--at", "250,750")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   SampleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "box", resp.Data.Target)
	assert.Equal(t, "opacity", resp.Data.Key)
	require.Len(t, resp.Data.Samples, 2)
	assert.Equal(t, "2.5", resp.Data.Samples[0].Value)
	assert.Equal(t, "7.5", resp.Data.Samples[1].Value)
}

func TestSampleAbsentValue(t *testing.T) {
	path := writeDocument(t, "scene.yaml", `targets:
  - id: box
    animations:
      - kind: animate
        attribute: opacity
        values: "0;1"
        begin: 1s
        dur: 1s
`)

	cmd := NewSampleCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path, "--key", "opacity", "--at", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "t=500 opacity: -")
}

func TestSampleMatrix(t *testing.T) {
	cmd := NewSampleCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, documentPath("slide.cue"), "--order", "translate,rotate", "--at", "500")
	require.NoError(t, err)

	var resp struct {
		Data SampleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Samples, 1)
	want := []float64{1, 0, 0, 1, 50, 0}
	got := resp.Data.Samples[0].Matrix
	require.Len(t, got, 6)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "matrix[%d]", i)
	}
}

func TestSampleFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing_at", []string{"--key", "opacity"}, "required flag"},
		{"key_and_order", []string{"--key", "opacity", "--order", "rotate", "--at", "0"}, "exactly one of --key or --order"},
		{"neither", []string{"--at", "0"}, "exactly one of --key or --order"},
		{"bad_key", []string{"--key", "transform/spin", "--at", "0"}, "invalid --key"},
		{"bad_order", []string{"--order", "spin", "--at", "0"}, "invalid --order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewSampleCommand(&RootOptions{Format: "text"})
			_, _, err := execute(cmd, append([]string{documentPath("fade.yaml")}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
