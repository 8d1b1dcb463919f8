package hal

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	beepSampleRate = beep.SampleRate(44100)
	beepFrequency  = 440
)

// beeper plays a single square-wave tone for as long as the machine's
// sound timer runs.
type beeper struct {
	ctrl *beep.Ctrl
}

func newBeeper() (*beeper, error) {
	if err := speaker.Init(beepSampleRate, beepSampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}

	ctrl := &beep.Ctrl{Streamer: squareWave(beepFrequency), Paused: true}
	speaker.Play(ctrl)

	return &beeper{ctrl: ctrl}, nil
}

func (b *beeper) set(on bool) {
	speaker.Lock()
	b.ctrl.Paused = !on
	speaker.Unlock()
}

func (b *beeper) close() {
	speaker.Clear()
}

func squareWave(freq int) beep.Streamer {
	period := int(beepSampleRate) / freq
	half := period / 2
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := -0.25
			if pos < half {
				v = 0.25
			}

			samples[i][0] = v
			samples[i][1] = v
			pos = (pos + 1) % period
		}

		return len(samples), true
	})
}
