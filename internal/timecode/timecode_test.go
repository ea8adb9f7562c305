package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "zero", input: "00:00", want: 0},
		{name: "simple", input: "01:30", want: 90000},
		{name: "single digit seconds", input: "2:5", want: 125000},
		{name: "three digit minutes", input: "120:00", want: 7200000},
		{name: "blank is zero", input: "", want: 0},
		{name: "whitespace only is zero", input: "   ", want: 0},
		{name: "padded input", input: " 01:10 ", want: 70000},
		{name: "seconds out of range", input: "01:60", wantErr: true},
		{name: "not a time", input: "abc", wantErr: true},
		{name: "missing seconds", input: "12:", wantErr: true},
		{name: "negative minutes", input: "-1:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDisplayTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDisplayTime(t *testing.T) {
	assert.Equal(t, "00:00", FormatDisplayTime(0))
	assert.Equal(t, "01:30", FormatDisplayTime(90000))
	assert.Equal(t, "00:00", FormatDisplayTime(-5000))
	// minutes are not capped at two digits
	assert.Equal(t, "120:00", FormatDisplayTime(7200000))
}

func TestDisplayTimeRoundTrip(t *testing.T) {
	for _, s := range []string{"00:05", "01:30", "59:59", "99:01", "120:07"} {
		ms, err := ParseDisplayTime(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatDisplayTime(ms))
	}
}

func TestParseSRTTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "comma separator", input: "00:02:16,612", want: 136612},
		{name: "dot separator", input: "00:02:16.612", want: 136612},
		{name: "zero", input: "00:00:00,000", want: 0},
		{name: "hours", input: "01:00:00,000", want: 3600000},
		{name: "trailing whitespace", input: "00:00:01,500 ", want: 1500},
		{name: "missing millis", input: "00:02:16", wantErr: true},
		{name: "short fields", input: "0:2:16,612", wantErr: true},
		{name: "garbage", input: "not a time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSRTTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSRTTime(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatSRTTime(0))
	assert.Equal(t, "00:02:16,612", FormatSRTTime(136612))
	assert.Equal(t, "01:02:03,004", FormatSRTTime(3723004))
	assert.Equal(t, "00:00:00,000", FormatSRTTime(-42))
}

func TestSRTTimeRoundTrip(t *testing.T) {
	// covers the full representable range up to 99:59:59,999
	for _, ms := range []int64{0, 1, 999, 1000, 59999, 60000, 3599999, 3600000, 359999999} {
		formatted := FormatSRTTime(ms)
		parsed, err := ParseSRTTime(formatted)
		require.NoError(t, err)
		assert.Equal(t, ms, parsed, "round trip for %d", ms)
	}
}

func TestValidateRange(t *testing.T) {
	t.Run("both blank means no trim", func(t *testing.T) {
		assert.NoError(t, ValidateRange("", ""))
	})

	t.Run("open ended range", func(t *testing.T) {
		assert.NoError(t, ValidateRange("01:00", ""))
	})

	t.Run("ordered range", func(t *testing.T) {
		assert.NoError(t, ValidateRange("01:00", "05:00"))
	})

	t.Run("reversed range", func(t *testing.T) {
		err := ValidateRange("05:00", "01:00")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "greater than start")
	})

	t.Run("equal start and end", func(t *testing.T) {
		assert.Error(t, ValidateRange("01:00", "01:00"))
	})

	t.Run("malformed start", func(t *testing.T) {
		err := ValidateRange("abc", "01:00")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("blank start with end", func(t *testing.T) {
		assert.NoError(t, ValidateRange("", "01:00"))
	})
}
