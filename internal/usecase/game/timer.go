package usecase_game

import (
	"context"
	"time"

	"github.com/nbelyakov/doodleroom/internal/model"
)

// One countdown per room. Starting a new one implicitly cancels whatever
// was running for that room; the timer is idle during the choosing phase
// and only runs while drawing.

func (u *Usecase) startTimer(code string, seconds int) {
	u.tmu.Lock()
	if prev, ok := u.timers[code]; ok {
		close(prev)
	}
	stop := make(chan struct{})
	u.timers[code] = stop
	u.tmu.Unlock()

	go u.runTimer(code, seconds, stop)
}

func (u *Usecase) stopTimer(code string) {
	u.tmu.Lock()
	if stop, ok := u.timers[code]; ok {
		close(stop)
		delete(u.timers, code)
	}
	u.tmu.Unlock()
}

// isActiveTimer guards against a superseded loop applying a stale tick.
func (u *Usecase) isActiveTimer(code string, stop chan struct{}) bool {
	u.tmu.Lock()
	defer u.tmu.Unlock()
	return u.timers[code] == stop
}

func (u *Usecase) runTimer(code string, seconds int, stop chan struct{}) {
	ticker := time.NewTicker(u.tick)
	defer ticker.Stop()

	timeLeft := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !u.isActiveTimer(code, stop) {
				return
			}

			if timeLeft > 0 {
				timeLeft--
			}
			u.applyTick(code, timeLeft)

			if u.broadcaster != nil {
				u.broadcaster.TimeUpdate(code, timeLeft)
			}

			if timeLeft <= 0 {
				u.stopTimer(code)
				u.expireTurn(code)
				return
			}
		}
	}
}

// applyTick writes the countdown into the live session and, best effort,
// the store. A failed persistence write must not halt the countdown.
// Ticks apply only while drawing, so a racing turn advance cannot be
// overwritten by a stale in-flight tick.
func (u *Usecase) applyTick(code string, timeLeft int) {
	u.mu.RLock()
	r, ok := u.rooms[code]
	u.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	if r.session.Phase != model.PhaseDrawing {
		r.mu.Unlock()
		return
	}
	r.session.TimeLeft = timeLeft
	r.mu.Unlock()

	if err := u.repo.SetTimeLeft(context.Background(), code, timeLeft); err != nil {
		u.logger.Warn("time left not persisted", "room", code, "error", err)
	}
}

// expireTurn runs the end-of-turn sequence: drawer bonus from the ledger,
// then the turn advance. Guesses processed before this point are already in
// the ledger because both paths hold the room lock.
func (u *Usecase) expireTurn(code string) {
	ctx := context.Background()

	u.mu.RLock()
	r, ok := u.rooms[code]
	u.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	s := r.session
	if s.Status == model.StatusPlaying && s.Phase == model.PhaseDrawing {
		if bonus := drawerBonus(s.Guesses); bonus > 0 {
			if p, ok := r.players[s.CurrentDrawer]; ok {
				p.Score += bonus
				if err := u.repo.IncrementScore(ctx, p.ID, bonus); err != nil {
					u.logger.Warn("drawer bonus not persisted", "room", code, "error", err)
				}
			}
		}
		u.advanceLocked(s)
		if err := u.repo.SaveTurnState(ctx, *s); err != nil {
			u.logger.Warn("turn state not persisted", "room", code, "error", err)
		}
	}
	r.mu.Unlock()

	if u.broadcaster != nil {
		u.broadcaster.GameUpdated(code)
	}
}
