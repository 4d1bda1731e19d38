package audio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const silencedetectOutput = `[silencedetect @ 0x5594] silence_start: 2.5
[silencedetect @ 0x5594] silence_end: 3.7 | silence_duration: 1.2
[silencedetect @ 0x5594] silence_start: 10.0
[silencedetect @ 0x5594] silence_end: 11.5 | silence_duration: 1.5
size=N/A time=00:00:15.00 bitrate=N/A speed= 512x
`

func TestParseSilenceLog(t *testing.T) {
	segments, err := parseSilenceLog(strings.NewReader(silencedetectOutput))

	assert.NoError(t, err)
	assert.Len(t, segments, 2)

	assert.Equal(t, 2.5, segments[0].Start)
	assert.Equal(t, 1.2, segments[0].Duration)
	assert.Equal(t, 10.0, segments[1].Start)
	assert.Equal(t, 1.5, segments[1].Duration)
}

func TestParseSilenceLogEmpty(t *testing.T) {
	segments, err := parseSilenceLog(strings.NewReader("size=N/A time=00:00:05.00\n"))

	assert.NoError(t, err)
	assert.Empty(t, segments)
}

func TestBuildSpeechSegments(t *testing.T) {
	silence := []SilenceSegment{
		{Start: 5.0, Duration: 2.0},
		{Start: 12.0, Duration: 1.0},
	}

	segments := buildSpeechSegments(silence, 20.0, 30.0)

	assert.Len(t, segments, 3)

	// Речь до первой паузы
	assert.Equal(t, 0.0, segments[0].Start)
	assert.Equal(t, 5.0, segments[0].End)

	// Речь между паузами
	assert.Equal(t, 7.0, segments[1].Start)
	assert.Equal(t, 12.0, segments[1].End)

	// Хвост после последней паузы
	assert.Equal(t, 13.0, segments[2].Start)
	assert.Equal(t, 20.0, segments[2].End)
}

func TestBuildSpeechSegmentsSplitsLong(t *testing.T) {
	// Без пауз: один длинный кусок режется по maxSegmentDuration
	segments := buildSpeechSegments(nil, 70.0, 30.0)

	assert.Len(t, segments, 3)
	assert.Equal(t, 30.0, segments[0].Duration)
	assert.Equal(t, 30.0, segments[1].Duration)
	assert.Equal(t, 10.0, segments[2].Duration)
}

func TestBuildSpeechSegmentsIgnoresShort(t *testing.T) {
	// Сегменты короче секунды отбрасываются
	silence := []SilenceSegment{
		{Start: 0.5, Duration: 2.0},
	}

	segments := buildSpeechSegments(silence, 10.0, 30.0)

	assert.Len(t, segments, 1)
	assert.Equal(t, 2.5, segments[0].Start)
}
