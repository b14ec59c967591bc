package service

import "log"

func (q *QueueEngine) updatePlayingRound(round int) {
	q.playingRound = round
	if round > q.minOpenRound {
		q.minOpenRound = round
		if q.opts.RoundDuration > 0 {
			q.stopRoundTimer()
			q.setRoundTimer()
		}
	}
}

func (q *QueueEngine) setRoundTimer() {
	q.timerSeq++
	seq := q.timerSeq
	q.roundTimer = q.clock.AfterFunc(q.opts.RoundDuration, func() { q.closeRound(seq) })
}

func (q *QueueEngine) stopRoundTimer() {
	if q.roundTimer != nil {
		q.roundTimer.Stop()
		q.roundTimer = nil
	}
	q.timerSeq++
}

// closeRound es el disparo del timer: entra por el mismo mutex que los
// comandos. Un disparo de un timer ya reemplazado no hace nada.
func (q *QueueEngine) closeRound(seq int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.timerSeq {
		return
	}

	q.minOpenRound++
	log.Printf("[queue] round %d closed to new submissions", q.minOpenRound-1)
	q.roundTimer = nil
	for _, e := range q.queue {
		if !e.IsMarker() && e.Round >= q.minOpenRound {
			q.setRoundTimer()
			return
		}
	}
}

// removeFromQueue saca la entrada en index. En rotación, las entradas
// posteriores del mismo usuario avanzan una ronda para cubrir el hueco.
func (q *QueueEngine) removeFromQueue(index int) {
	entry := q.queue[index]
	if !entry.IsMarker() {
		u := q.user(entry.SubmittedBy)
		if (q.opts.LevelLimitType == LimitActive || index > 0) && !entry.WasPrev && !entry.Reloaded && u.submitted > 0 {
			u.submitted--
		}

		if q.rotation() && index > 0 {
			dest := entry.Round
			u.lastRound = dest - 1
			for i := index + 1; i < len(q.queue); i++ {
				later := q.queue[i]
				if later.IsMarker() || later.SubmittedBy != entry.SubmittedBy {
					continue
				}
				q.queue[index] = later
				index = i
				next := later.Round
				later.Round = dest
				u.lastRound = dest
				dest = next
			}
		}
	}
	q.queue = append(q.queue[:index], q.queue[index+1:]...)
}
