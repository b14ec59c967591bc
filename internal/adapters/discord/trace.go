package discord

import (
	"log"
	"time"
)

// slowStep: a partir de acá un comando o un refresco del panel se loguea
const slowStep = 2 * time.Second

// step mide una operación del bot; solo deja rastro si fue lenta (API de
// niveles con reintentos, rate limit de Discord).
func step(label string) func() {
	start := time.Now()
	return func() {
		if d := time.Since(start); d >= slowStep {
			log.Printf("[discord] slow %s: %s", label, d.Round(time.Millisecond))
		}
	}
}
