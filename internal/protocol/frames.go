// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package protocol implementa o protocolo de wire do TeamRadar sobre TCP:
// frames delimitados no formato HEADER#LEN#BODY, onde HEADER é uma tag
// ASCII maiúscula, LEN é o tamanho decimal do body em bytes e BODY são
// LEN bytes crus (podem conter '#' como sub-delimitador).
package protocol

import (
	"errors"
	"time"
)

// Tags reconhecidas vindas de clients (inbound).
const (
	TagGreeting    = "GREETING"
	TagPing        = "PING"
	TagPong        = "PONG"
	TagEvent       = "EVENT"
	TagChat        = "CHAT"
	TagRegPhoto    = "REG_PHOTO"
	TagRegColor    = "REG_COLOR"
	TagJoinProject = "JOIN_PROJECT"
	TagReqOnline   = "REQ_ONLINE"
	TagReqPhoto    = "REQ_PHOTO"
	TagReqColor    = "REQ_COLOR"
	TagReqEvents   = "REQ_EVENTS"
	TagReqTimeSpan = "REQ_TIMESPAN"
	TagReqProjects = "REQ_PROJECTS"
	TagReqMembers  = "REQ_TEAMMEMBERS"
	TagReqLocation = "REQ_LOCATION"
	TagReqRecent   = "REQ_RECENT"
)

// Tags emitidas para clients (outbound).
const (
	TagEventsReply   = "EVENTS_REPLY"
	TagRecentEvent   = "RECENT_EVENT"
	TagMembersReply  = "TEAMMEMBERS_REPLY"
	TagOnlineReply   = "ONLINE_REPLY"
	TagPhotoReply    = "PHOTO_REPLY"
	TagColorReply    = "COLOR_REPLY"
	TagTimeSpanReply = "TIMESPAN_REPLY"
	TagProjectsReply = "PROJECTS_REPLY"
	TagLocationReply = "LOCATION_REPLY"
)

// Respostas do handshake GREETING (Server → Client).
const (
	GreetingOK    = "OK, CONNECTED"
	GreetingWrong = "WRONG_USER"
)

// Delimitadores do protocolo. Delimiter separa os campos do frame
// (HEADER#LEN#BODY); Delimiter1 e Delimiter2 são convenções usadas
// dentro de bodies (subcampos e itens de lista, respectivamente) e
// nunca são interpretados pelo Framer.
const (
	Delimiter  = '#'
	Delimiter1 = '#'
	Delimiter2 = ';'
)

const (
	// MaxBufferSize limita o buffer de scan do header/len e o tamanho
	// máximo de um body (1 MiB). O excesso sem delimitador aborta a conexão.
	MaxBufferSize = 1024 * 1024

	// TransferTimeout é o tempo máximo sem progresso durante a recepção
	// de um frame (do primeiro byte do header até o último byte do body).
	TransferTimeout = 30 * time.Second
)

// Erros do protocolo.
var (
	// ErrFraming cobre falhas fatais de framing: LEN inválido, overflow
	// de buffer sem delimitador, body menor que o anunciado.
	ErrFraming = errors.New("protocol: malformed frame")

	// ErrUnknownHeader é recuperável: a tag lida não consta da tabela.
	// O token é descartado e o framer volta a ler um novo header.
	ErrUnknownHeader = errors.New("protocol: unknown header")
)

// Frame é a unidade do protocolo: uma tag e um body opaco.
type Frame struct {
	Header string
	Body   []byte
}

// inboundTags é a tabela fixa tag → válida para frames vindos do client.
var inboundTags = map[string]bool{
	TagGreeting:    true,
	TagPing:        true,
	TagPong:        true,
	TagEvent:       true,
	TagChat:        true,
	TagRegPhoto:    true,
	TagRegColor:    true,
	TagJoinProject: true,
	TagReqOnline:   true,
	TagReqPhoto:    true,
	TagReqColor:    true,
	TagReqEvents:   true,
	TagReqTimeSpan: true,
	TagReqProjects: true,
	TagReqMembers:  true,
	TagReqLocation: true,
	TagReqRecent:   true,
}

// outboundTags lista as tags que o server emite.
var outboundTags = map[string]bool{
	TagGreeting:      true,
	TagPing:          true,
	TagPong:          true,
	TagEvent:         true,
	TagChat:          true,
	TagEventsReply:   true,
	TagRecentEvent:   true,
	TagMembersReply:  true,
	TagOnlineReply:   true,
	TagPhotoReply:    true,
	TagColorReply:    true,
	TagTimeSpanReply: true,
	TagProjectsReply: true,
	TagLocationReply: true,
}

// KnownInbound responde se a tag é aceita vinda de um client.
func KnownInbound(tag string) bool {
	return inboundTags[tag]
}

// KnownOutbound responde se a tag é emitida pelo server.
func KnownOutbound(tag string) bool {
	return outboundTags[tag]
}
