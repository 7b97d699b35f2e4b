package extract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const fixtureInput = `w,Sun,,,Mon,,,Tue,,,Wed,,,Thu,,,Fri,,,Sat,,,,
12/4/2016,,,,,,,,,,b,23:45,,w,3:45,4.00,w,2:00,2.75,b,0:00,9.00,,
,,,,,,,,,,,,,s,4:45,,s,3:30,,w,5:15,5.25,,
,,,,,,,,,,,,,w,6:15,1.50,w,8:45,5.25,s,10:30,,,
,,,,,,,,,,,,,s,11:30,,s,19:30,,w,11:30,1.00,,
,,,,,,,,,,,,,w,12:15,0.75,w,20:30,1.00,s,16:00,,,
,,,,,,,,,,,,,s,16:45,,,,,w,17:00,1.00,,
,,,,,,,,,,,,,w,17:30,0.75,,,,b,22:30,7.25,,
,,,,,,,,,,,,,s,21:00,,,,,,,,,
,,,,,,,,,,,,,w,21:30,0.50,,,,,,,,
,,,,,,,,,,,,,b,23:15,7.50,,,,,,,,
,,,,,,,,,,,,,,,,,,,,,,,
,,,,,,,,,,,,,,,,,,,,,,,
`

const fixtureOutput = `
Week of Sunday, 2016-12-04:
==========================
    2016-12-04
    2016-12-05
    2016-12-06
    2016-12-07
action: Y, time: 23:45
    2016-12-08
action: w, time: 3:45, hours: 4.00
action: s, time: 4:45
action: w, time: 6:15, hours: 1.50
action: s, time: 11:30
action: w, time: 12:15, hours: 0.75
action: s, time: 16:45
action: w, time: 17:30, hours: 0.75
action: s, time: 21:00
action: w, time: 21:30, hours: 0.50
action: b, time: 23:15, hours: 7.50
    2016-12-09
action: w, time: 2:00, hours: 2.75
action: s, time: 3:30
action: w, time: 8:45, hours: 5.25
action: s, time: 19:30
action: w, time: 20:30, hours: 1.00
    2016-12-10
action: b, time: 0:00, hours: 9.00
action: w, time: 5:15, hours: 5.25
action: s, time: 10:30
action: w, time: 11:30, hours: 1.00
action: s, time: 16:00
action: w, time: 17:00, hours: 1.00
action: b, time: 22:30, hours: 7.25
`

func runExtract(t *testing.T, input string, log *zap.Logger) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Extract(strings.NewReader(input), &out, log))
	return out.String()
}

func TestExtractFixture(t *testing.T) {
	assert.Equal(t, fixtureOutput, runExtract(t, fixtureInput, nil))
}

func TestExtractIsDeterministic(t *testing.T) {
	first := runExtract(t, fixtureInput, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, runExtract(t, fixtureInput, nil))
	}
}

func TestExtractWeekFlushedOnceOnBlankRowOrEOF(t *testing.T) {
	body := "3/31/2019,b,22:00,8.00,w,6:00,8.00,,,,,,,,,,,,,,,\n"
	cases := map[string]string{
		"blank row":    body + ",,,,,,,,,,,,,,,,,,,,,\n,,,\n",
		"end of input": body,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			out := runExtract(t, input, nil)
			assert.Equal(t, 1, strings.Count(out, "Week of Sunday, 2019-03-31:"))
			assert.Equal(t, 1, strings.Count(out, "    2019-04-01\n"))
			assert.Equal(t, 1, strings.Count(out, "action: w, time: 6:00, hours: 8.00"))
		})
	}
}

func TestExtractWeekHeaderPerSundayRow(t *testing.T) {
	input := strings.Join([]string{
		"3/17/2019,b,22:00,8.00,,,,,,,,,,,,,,,,,,",
		"",
		"3/24/2019,,,,b,23:00,7.00,,,,,,,,,,,,,,,",
		"",
		"3/31/2019,,,,,,,b,21:00,9.00,,,,,,,,,,,,",
	}, "\n")
	out := runExtract(t, input, nil)
	assert.Equal(t, 3, strings.Count(out, "Week of Sunday, "))
	assert.Less(t, strings.Index(out, "2019-03-17:"), strings.Index(out, "2019-03-24:"))
	assert.Less(t, strings.Index(out, "2019-03-24:"), strings.Index(out, "2019-03-31:"))
}

func TestExtractNonSundayDateIsLoggedAndIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	input := "11/14/2017,b,22:00,8.00,,,,,,,,,,,,,,,,,,\n,s,3:00,,,,,,,,,,,,,,,,,,,\n"

	out := runExtract(t, input, zap.New(core))

	assert.Empty(t, out)
	entries := logs.FilterMessage("non-Sunday date found in input").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "2017-11-14", entries[0].ContextMap()["date"])
}

func TestExtractMalformedSegmentSkipsOnlyThatSlot(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	input := "4/7/2019,b,22:00,8.00,s,10:00,1.00,w,25:00,1.00,,,,,,,,,,,,\n,w,6:00,8.00,,,,,,,,,,,,,,,,,,\n"

	out := runExtract(t, input, zap.New(core))

	assert.Contains(t, out, "action: b, time: 22:00, hours: 8.00\n")
	assert.Contains(t, out, "action: w, time: 6:00, hours: 8.00\n")
	assert.NotContains(t, out, "10:00")
	assert.NotContains(t, out, "25:00")
	assert.Equal(t, 2, logs.FilterMessage("segment not valid").Len())
}

func TestExtractDataBeforeFirstWeekIsIgnored(t *testing.T) {
	input := ",b,22:00,8.00,,,,,,,,,,,,,,,,,,\n4/7/2019,,,,,,,,,,,,,,,,,,,,,\n,,,,w,6:00,8.00,,,,,,,,,,,,,,,\n"
	out := runExtract(t, input, nil)
	assert.NotContains(t, out, "22:00")
	assert.Contains(t, out, "action: w, time: 6:00, hours: 8.00")
}

func TestExtractDateRowWithoutEventsKeepsWeekOpen(t *testing.T) {
	input := "4/7/2019,,,,,,,,,,,,,,,,,,,,,\n,,,,b,23:00,7.50,,,,,,,,,,,,,,,\n"
	out := runExtract(t, input, nil)
	assert.Contains(t, out, "    2019-04-08\naction: b, time: 23:00, hours: 7.50\n")
}

func TestExtractOutputIsSubsequenceOfInputPerDay(t *testing.T) {
	out := runExtract(t, fixtureInput, nil)
	thursday := []string{
		"action: w, time: 3:45, hours: 4.00",
		"action: s, time: 4:45",
		"action: w, time: 6:15, hours: 1.50",
		"action: b, time: 23:15, hours: 7.50",
	}
	pos := 0
	for _, line := range thursday {
		idx := strings.Index(out[pos:], line)
		require.GreaterOrEqual(t, idx, 0, "missing or out of order: %s", line)
		pos += idx + len(line)
	}
}

func TestExtractWeeksCounter(t *testing.T) {
	var out bytes.Buffer
	x := New(NewLineWriter(&out), nil)
	require.NoError(t, x.Run(strings.NewReader(fixtureInput)))
	assert.Equal(t, 1, x.Weeks())
}

func TestExtractReadsRowsLongerThanScannerLimit(t *testing.T) {
	long := "3/31/2019,b,22:00,8.00" + strings.Repeat(",", 100*1024) + "\n"
	input := long + ",,,,w,6:00,8.00,,,,,,,,,,,,,,,\n"

	out := runExtract(t, input, nil)

	assert.Contains(t, out, "Week of Sunday, 2019-03-31:")
	assert.Contains(t, out, "action: b, time: 22:00, hours: 8.00\n")
	assert.Contains(t, out, "action: w, time: 6:00, hours: 8.00\n")
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.read {
		return 0, errors.New("disk gone")
	}
	r.read = true
	return copy(p, r.data), nil
}

func TestExtractReadErrorStillWritesBufferedWeeks(t *testing.T) {
	var out bytes.Buffer
	err := Extract(&failingReader{data: "3/31/2019,b,22:00,8.00,,,,,,,,,,,,,,,,,,\n"}, &out, nil)

	require.Error(t, err)
	assert.Contains(t, out.String(), "action: b, time: 22:00, hours: 8.00\n")
}

func TestExtractLogsWeekCountAndOpenMissingDataSpan(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	input := "3/31/2019,b,22:00,8.00,,,,,,,,,,,,,,,,,,\n,,,,b,23:00,,,,,,,,,,,,,,,,\n"

	runExtract(t, input, zap.New(core))

	finished := logs.FilterMessage("extract finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, int64(1), finished[0].ContextMap()["weeks"])
	assert.Equal(t, 1, logs.FilterMessage("input ends inside a missing-data span").Len())
}
