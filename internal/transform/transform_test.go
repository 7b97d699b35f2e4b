package transform

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const extractOutput = `
Week of Sunday, 2016-12-04:
==========================
    2016-12-04
    2016-12-07
action: Y, time: 23:45
    2016-12-08
action: w, time: 3:45, hours: 4.00
action: s, time: 4:45
action: w, time: 6:15, hours: 1.50
action: N, time: 22:00
action: b, time: 23:15, hours: 7.50
`

func TestTransformRun(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Transform(strings.NewReader(extractOutput), &out, nil))
	assert.Equal(t, `NIGHT, 2016-12-07, 23:45, false, true
NAP, 23:45, 04.00
NAP, 04:45, 01.50
NIGHT, 2016-12-08, 22:00, true, false
NIGHT, 2016-12-08, 23:15, false, false
`, out.String())
}

func TestTransformBadLineIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := New(zap.New(core))
	_, ok := tr.Process("cowabunga!!!")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("bad value in input").Len())
}

func TestTransformWakeWithoutSleep(t *testing.T) {
	tr := New(nil)
	_, ok := tr.Process("action: w, time: 6:00, hours: 8.00")
	assert.False(t, ok)
}

func TestDuration(t *testing.T) {
	tr := New(nil)
	tests := []struct {
		wake, sleep, want string
	}{
		{"07:00", "23:00", "08.00"},
		{"06:15", "04:45", "01.50"},
		{"12:45", "12:00", "00.75"},
		{"00:00", "00:00", "00.00"},
		{"08:10", "07:00", "01.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.duration(tt.wake, tt.sleep), "%s-%s", tt.wake, tt.sleep)
	}
}

func TestClosestQuarter(t *testing.T) {
	assert.Equal(t, 0, ClosestQuarter(7))
	assert.Equal(t, 15, ClosestQuarter(8))
	assert.Equal(t, 15, ClosestQuarter(22))
	assert.Equal(t, 30, ClosestQuarter(23))
	assert.Equal(t, 30, ClosestQuarter(36))
	assert.Equal(t, 45, ClosestQuarter(37))
	assert.Equal(t, 45, ClosestQuarter(59))
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("NIGHT, 2023-06-08, 22:00, true, false")
	require.NoError(t, err)
	assert.Equal(t, Record{Kind: KindNight, Date: "2023-06-08", Start: "22:00", NoData: true}, rec)
	assert.Equal(t, "NIGHT, 2023-06-08, 22:00, true, false", rec.String())

	rec, err = ParseRecord("NAP, 14:30, 01.25")
	require.NoError(t, err)
	assert.Equal(t, Record{Kind: KindNap, Start: "14:30", Duration: "01.25"}, rec)

	_, err = ParseRecord("NIGHT, 2023-06-08, 22:00")
	assert.Error(t, err)
	_, err = ParseRecord("NIGHT, 2023-06-08, 22:00, maybe, false")
	assert.Error(t, err)
	_, err = ParseRecord("DAY, 1")
	assert.Error(t, err)
}
