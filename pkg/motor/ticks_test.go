package motor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTicksWraparound(t *testing.T) {
	before := Ticks(math.MaxUint32 - 4)
	after := before.Add(10)
	require.Equal(t, Ticks(5), after)
	require.Equal(t, int32(10), after.Sub(before))
	require.Equal(t, int32(-10), before.Sub(after))
	require.True(t, before.Before(after))
	require.False(t, after.Before(before))
}

func TestTicksConversions(t *testing.T) {
	require.Equal(t, int32(50), TicksFromMs(5))
	require.Equal(t, int32(LoopPeriod), TicksFromDuration(LoopPeriodMs*time.Millisecond))
	require.Equal(t, uint32(12), Ticks(125).Ms())
}

func TestLoopClock(t *testing.T) {
	origin := time.Unix(1000, 0)
	c := NewLoopClock(origin)
	require.Equal(t, Ticks(0), c.Now(origin))
	require.Equal(t, Ticks(50), c.Now(origin.Add(5*time.Millisecond)))

	// same iteration time still advances.
	require.Equal(t, Ticks(51), c.Now(origin.Add(5*time.Millisecond)))
	// wall clock stepping back still advances.
	require.Equal(t, Ticks(52), c.Now(origin))
	require.Equal(t, Ticks(52), c.Last())

	// a late iteration reports the real elapsed time.
	require.Equal(t, Ticks(300), c.Now(origin.Add(30*time.Millisecond)))
}

func TestParsers(t *testing.T) {
	p, err := ParsePort("c")
	require.NoError(t, err)
	require.Equal(t, PortC, p)
	require.Equal(t, "C", p.String())
	_, err = ParsePort("G")
	require.Error(t, err)
	_, err = ParsePort("")
	require.Error(t, err)

	k, err := ParseKind("technic-l-angular")
	require.NoError(t, err)
	require.Equal(t, KindTechnicLAngular, k)
	_, err = ParseKind("servo9000")
	require.Error(t, err)

	then, err := ParseThen("hold")
	require.NoError(t, err)
	require.Equal(t, ThenHold, then)
	require.Equal(t, "continue", ThenContinue.String())
	_, err = ParseThen("explode")
	require.True(t, err != nil)
}
