package fflogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acrossfc/core"
)

func TestParseReportURL(t *testing.T) {
	cases := []struct {
		in    string
		code  string
		fight int
		ok    bool
	}{
		{"https://www.fflogs.com/reports/AbCd1234#fight=7", "AbCd1234", 7, true},
		{"https://www.fflogs.com/reports/AbCd1234#fight=12&type=damage-done", "AbCd1234", 12, true},
		{"https://fflogs.com/en/reports/Zz9#fight=1", "Zz9", 1, true},
		{"https://www.fflogs.com/reports/AbCd1234", "", 0, false},
		{"https://www.fflogs.com/reports/AbCd1234#fight=last", "", 0, false},
		{"https://www.fflogs.com/character/na/x#fight=1", "", 0, false},
		{"https://www.fflogs.com/reports/#fight=1", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			code, fight, err := ParseReportURL(tc.in)
			if !tc.ok {
				require.ErrorIs(t, err, core.ErrInvalidFFLogsURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.fight, fight)
		})
	}
}
