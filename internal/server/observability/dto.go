// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package observability

// UserDTO é a projeção JSON de uma linha da tabela Users.
type UserDTO struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
	Color    string `json:"color"`
	Image    string `json:"image"`
	Project  string `json:"project"`
}

// EventDTO é a projeção JSON de uma linha da tabela Logs.
type EventDTO struct {
	Time       string `json:"time"`
	User       string `json:"user"`
	Event      string `json:"event"`
	Parameters string `json:"parameters"`
}

// MetricsDTO espelha o último snapshot do StatsReporter.
type MetricsDTO struct {
	Connections   int     `json:"connections"`
	FramesIn      int64   `json:"frames_in"`
	FramesOut     int64   `json:"frames_out"`
	BytesIn       int64   `json:"bytes_in"`
	BytesOut      int64   `json:"bytes_out"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	LoadAverage   float64 `json:"load_avg"`
}
