package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepThreshold — размер карты, после которого выбрасываются простаивающие лимитеры.
const sweepThreshold = 1024

type actorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// actorLimiter хранит по лимитеру на пользователя: защита от двойных нажатий.
type actorLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*actorEntry
	every    time.Duration
	burst    int
	now      func() time.Time
}

func newActorLimiter(every time.Duration, burst int) *actorLimiter {
	return &actorLimiter{
		limiters: make(map[int64]*actorEntry),
		every:    every,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow: nil-лимитер (ограничение выключено) пропускает всё.
func (l *actorLimiter) Allow(actorID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	now := l.now()
	e, ok := l.limiters[actorID]
	if !ok {
		if len(l.limiters) >= sweepThreshold {
			l.sweep(now)
		}
		e = &actorEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[actorID] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// sweep удаляет лимитеры, простоявшие дольше полного восстановления burst:
// такой лимитер неотличим от нового. Вызывается под l.mu.
func (l *actorLimiter) sweep(now time.Time) {
	idle := l.every * time.Duration(max(l.burst, 1))
	for id, e := range l.limiters {
		if now.Sub(e.lastSeen) >= idle {
			delete(l.limiters, id)
		}
	}
}
