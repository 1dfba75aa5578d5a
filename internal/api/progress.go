package telegram

import "damage-bot/internal/domain/entity"

// framesPerUpdate шаг обновления, когда длина видео неизвестна
const framesPerUpdate = 25

// progressThrottle решает, пора ли обновлять сообщение о прогрессе
type progressThrottle struct {
	step        int
	lastPercent int
	lastFrames  int
}

func newProgressThrottle(step int) *progressThrottle {
	if step < 1 {
		step = 1
	}
	return &progressThrottle{step: step}
}

func (t *progressThrottle) due(p entity.Progress) bool {
	if !p.Known {
		if p.Processed-t.lastFrames < framesPerUpdate {
			return false
		}
		t.lastFrames = p.Processed
		return true
	}

	pct := percent(p)
	if pct < 100 && pct-t.lastPercent < t.step {
		return false
	}
	if pct == t.lastPercent {
		return false
	}
	t.lastPercent = pct
	return true
}
