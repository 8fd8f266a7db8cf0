package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{input: "work", want: ModeWork},
		{input: "Pomodoro", want: ModeWork},
		{input: "short", want: ModeShortBreak},
		{input: "shortBreak", want: ModeShortBreak},
		{input: "long_break", want: ModeLongBreak},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}

	_, err := ParseMode("nap")
	assert.Error(t, err)
}

func TestMode_Label(t *testing.T) {
	assert.Equal(t, "Pomodoro", ModeWork.Label())
	assert.Equal(t, "Short break", ModeShortBreak.Label())
	assert.Equal(t, "Long break", ModeLongBreak.Label())
	assert.False(t, Mode("nap").Valid())
}

func TestEngineConfig_Normalize(t *testing.T) {
	config := EngineConfig{
		Durations: Durations{Work: 50 * time.Minute, ShortBreak: 500 * time.Millisecond},
		Alert:     AlertConfig{Repeats: -1},
	}.Normalize()

	assert.Equal(t, 50*time.Minute, config.Durations.Work)
	assert.Equal(t, 5*time.Minute, config.Durations.ShortBreak)
	assert.Equal(t, 15*time.Minute, config.Durations.LongBreak)
	assert.Equal(t, 3, config.Alert.Repeats)
	assert.Equal(t, 2*time.Second, config.Alert.Interval)
	assert.Equal(t, 15*time.Second, config.ScrubThreshold)
	assert.Equal(t, time.Second, config.TickInterval)
	assert.Equal(t, 3000, config.Durations.Seconds(ModeWork))
}

func TestPlaylists_For(t *testing.T) {
	playlists := Playlists{Work: []string{"a"}, ShortBreak: []string{"b"}, LongBreak: []string{"c"}}
	assert.Equal(t, []string{"a"}, playlists.For(ModeWork))
	assert.Equal(t, []string{"b"}, playlists.For(ModeShortBreak))
	assert.Equal(t, []string{"c"}, playlists.For(ModeLongBreak))
}
