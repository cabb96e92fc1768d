// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package event

import (
	"math"
	"sort"
	"time"
)

// PhaseDivider agrupa uma sequência histórica de eventos em fases e
// extrai, por fase pedida, o cluster dentro de um raio proporcional à
// fuzziness em torno do centróide da fase.
type PhaseDivider struct {
	fuzziness int // 0..100
	events    []Event
}

// NewPhaseDivider cria um divider sobre uma cópia de events ordenada por
// tempo. fuzziness é saturado para [0,100].
func NewPhaseDivider(events []Event, fuzziness int) *PhaseDivider {
	if fuzziness < 0 {
		fuzziness = 0
	}
	if fuzziness > 100 {
		fuzziness = 100
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &PhaseDivider{fuzziness: fuzziness, events: sorted}
}

// Events retorna a concatenação dos clusters das fases pedidas, na ordem
// de phases. Com phases vazio, retorna a sequência original inalterada.
// Duplicatas entre clusters são permitidas.
func (d *PhaseDivider) Events(phases []string) []Event {
	if len(phases) == 0 {
		return d.events
	}

	var result []Event
	for _, phase := range phases {
		result = append(result, d.cluster(phase)...)
	}
	return result
}

// cluster computa o cluster de uma fase: centro = primeiro evento da fase
// mais o offset médio; raio = fuzziness% do maior half-span; o cluster é
// extraído da sequência ORIGINAL, não apenas dos eventos da fase.
func (d *PhaseDivider) cluster(phase string) []Event {
	var members []Event
	for _, e := range d.events {
		if e.Phase() == phase {
			members = append(members, e)
		}
	}
	if len(members) == 0 {
		return nil
	}

	start := members[0].Time
	sum := 0.0
	for _, e := range members {
		sum += e.Time.Sub(start).Seconds()
	}
	avg := sum / float64(len(members))
	center := start.Add(secondsToDuration(avg))

	distanceStart := center.Sub(start).Seconds()
	distanceEnd := members[len(members)-1].Time.Sub(center).Seconds()
	maxRadius := math.Max(distanceStart, distanceEnd)
	radius := float64(d.fuzziness) * maxRadius / 100

	var result []Event
	for _, e := range d.events {
		if math.Abs(e.Time.Sub(center).Seconds()) <= radius {
			result = append(result, e)
		}
	}
	return result
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
