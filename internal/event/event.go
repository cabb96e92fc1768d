// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package event define o TeamRadarEvent e a derivação de fases de
// desenvolvimento a partir do tipo e parâmetros do evento.
package event

import "time"

// TimeLayout é o formato textual de timestamps no wire e na tabela Logs
// (yyyy-MM-dd HH:mm:ss).
const TimeLayout = "2006-01-02 15:04:05"

// Fases derivadas de eventType+parameters.
const (
	PhaseProject     = "Project"
	PhaseCoding      = "Coding"
	PhasePrototyping = "Prototyping"
	PhaseTesting     = "Testing"
	PhaseDeployment  = "Deployment"
)

// Event é um evento de atividade de um desenvolvedor. Imutável depois de
// criado; persistido na tabela Logs com ID numérico monotônico.
type Event struct {
	UserName   string
	EventType  string
	Parameters string
	Time       time.Time
}

// New cria um Event. Se timestamp for vazio ou inválido, usa o instante
// atual (comportamento de replay: frames históricos carregam o timestamp).
func New(userName, eventType, parameters, timestamp string) Event {
	t, err := time.ParseInLocation(TimeLayout, timestamp, time.Local)
	if timestamp == "" || err != nil {
		t = time.Now()
	}
	return Event{
		UserName:   userName,
		EventType:  eventType,
		Parameters: parameters,
		Time:       t,
	}
}

// TimeString formata o timestamp do evento no layout do protocolo.
func (e Event) TimeString() string {
	return e.Time.Format(TimeLayout)
}

// Phase deriva a fase de desenvolvimento do evento, ou "" quando o
// evento não mapeia para nenhuma fase.
func (e Event) Phase() string {
	if e.EventType == "MODE" {
		switch e.Parameters {
		case "Projects":
			return PhaseProject
		case "Edit":
			return PhaseCoding
		case "Design":
			return PhasePrototyping
		case "Debug":
			return PhaseTesting
		}
		return ""
	}
	if e.EventType == "SCM_COMMIT" {
		return PhaseDeployment
	}
	return ""
}
