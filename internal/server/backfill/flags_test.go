package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: Options{Phase: PhaseBackfill}},
		{name: "phase 2 with yes", args: []string{"-phase", "2", "-yes"}, want: Options{Phase: PhaseEnforce, Yes: true}},
		{name: "equals form", args: []string{"--phase=full"}, want: Options{Phase: PhaseFull}},
		{name: "mixed with config flags", args: []string{"-d", "postgres://x", "-phase", "full", "-s3-bucket", "b"}, want: Options{Phase: PhaseFull}},
		{name: "yes before phase", args: []string{"-yes", "-phase", "full"}, want: Options{Phase: PhaseFull, Yes: true}},
		{name: "explicit yes false", args: []string{"-yes", "false", "-phase", "2"}, want: Options{Phase: PhaseEnforce}},
		{name: "unknown phase", args: []string{"-phase", "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlags(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
