package chart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
)

func TestScenario(t *testing.T) {
	sc := &Scenario{
		Kind:     motor.KindEV3Large,
		Duration: time.Second,
		Command: func(s *servo.Servo, now motor.Ticks) error {
			return s.RunAngle(now, 500000, 90000, motor.ThenHold)
		},
	}
	rows, err := sc.Run()
	require.NoError(t, err)
	require.Len(t, rows, 1000/motor.LoopPeriodMs+1)
	last := rows[len(rows)-1]
	require.InDelta(t, 90000, float64(last.Angle), 10000)
	require.InDelta(t, 90000, float64(last.RefAngle), 1000)

	sc.Command = func(s *servo.Servo, now motor.Ticks) error {
		return s.RunTime(now, 100000, -1, motor.ThenCoast)
	}
	_, err = sc.Run()
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	sc := &Scenario{
		Kind:     motor.KindEV3Medium,
		Duration: 200 * time.Millisecond,
		Command: func(s *servo.Servo, now motor.Ticks) error {
			return s.Run(now, 300000)
		},
	}
	rows, err := sc.Run()
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "run")
	files, err := Save(prefix, "run 300 deg/s", rows)
	require.NoError(t, err)
	require.Equal(t, []string{prefix + "-angle.png", prefix + "-speed.png", prefix + "-duty.png"}, files)
	for _, file := range files {
		info, err := os.Stat(file)
		require.NoError(t, err)
		require.True(t, info.Size() > 0)
	}

	p, err := New("empty", "angle", nil, Angle)
	require.NoError(t, err)
	require.Equal(t, "empty", p.Title.Text)
}
