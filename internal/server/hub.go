// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/teamradar-dev/teamradar/internal/blob"
	"github.com/teamradar-dev/teamradar/internal/event"
	"github.com/teamradar-dev/teamradar/internal/protocol"
	"github.com/teamradar-dev/teamradar/internal/store"
)

// hubQueueSize limita o inbox do Hub. As conexões postam mensagens sem
// bloquear o loop de leitura em operação normal.
const hubQueueSize = 1024

type msgKind int

const (
	msgConnect msgKind = iota
	msgDisconnect
	msgFrame
)

type message struct {
	kind  msgKind
	conn  *Connection
	frame protocol.Frame
}

// Hub é a única goroutine que muta estado compartilhado: processa as
// mensagens das conexões em ordem FIFO, persiste eventos, responde
// consultas e faz o fan-out escopado por projeto.
type Hub struct {
	registry *Registry
	store    *store.Store
	blobs    blob.Store
	logger   *slog.Logger
	inbox    chan message

	framesIn  atomic.Int64
	framesOut atomic.Int64
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64
}

// NewHub cria o Hub sobre o registro, o banco e o backend de fotos.
func NewHub(registry *Registry, st *store.Store, blobs blob.Store, logger *slog.Logger) *Hub {
	return &Hub{
		registry: registry,
		store:    st,
		blobs:    blobs,
		logger:   logger.With("component", "hub"),
		inbox:    make(chan message, hubQueueSize),
	}
}

// Connected notifica o Hub de uma conexão que chegou a Ready.
func (h *Hub) Connected(conn *Connection) {
	h.post(message{kind: msgConnect, conn: conn})
}

// Disconnected notifica o Hub do fim de uma conexão Ready.
func (h *Hub) Disconnected(conn *Connection) {
	h.post(message{kind: msgDisconnect, conn: conn})
}

// Dispatch entrega um frame inbound ao Hub, preservando a ordem de
// chegada do peer.
func (h *Hub) Dispatch(conn *Connection, fr protocol.Frame) {
	h.framesIn.Add(1)
	h.bytesIn.Add(int64(len(fr.Body)))
	h.post(message{kind: msgFrame, conn: conn, frame: fr})
}

func (h *Hub) post(m message) {
	h.inbox <- m
}

func (h *Hub) countFrameOut(n int) {
	h.framesOut.Add(1)
	h.bytesOut.Add(int64(n))
}

// Counters retorna os contadores acumulados de frames e bytes.
func (h *Hub) Counters() (framesIn, framesOut, bytesIn, bytesOut int64) {
	return h.framesIn.Load(), h.framesOut.Load(), h.bytesIn.Load(), h.bytesOut.Load()
}

// Run processa o inbox até o context ser cancelado.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.inbox:
			h.handle(m)
		}
	}
}

// handle executa uma mensagem. Um panic num handler é tratado como erro
// de framing da conexão ofensora: ela é fechada e o servidor segue.
func (h *Hub) handle(m message) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("handler panic, closing connection",
				"user", m.conn.UserName(), "panic", r)
			m.conn.Close()
		}
	}()

	switch m.kind {
	case msgConnect:
		h.onConnect(m.conn)
	case msgDisconnect:
		h.onDisconnect(m.conn)
	case msgFrame:
		h.onFrame(m.conn, m.frame)
	}
}

// onConnect marca presença e registra o evento Connected. Não há
// broadcast de conexão: os clients descobrem presença via REQ_ONLINE.
func (h *Hub) onConnect(conn *Connection) {
	user := conn.UserName()
	if err := h.store.SetOnline(user, true); err != nil {
		h.logger.Error("setting user online", "user", user, "error", err)
	}
	h.append(event.New(user, "Connected", "", ""))
}

// onDisconnect desfaz a presença, registra e faz o broadcast do
// DISCONNECTED sintético para os colegas de projeto.
func (h *Hub) onDisconnect(conn *Connection) {
	user := conn.UserName()
	h.registry.Remove(user, conn)
	if err := h.store.SetOnline(user, false); err != nil {
		h.logger.Error("setting user offline", "user", user, "error", err)
	}

	e := event.New(user, "DISCONNECTED", "", "")
	h.append(e)
	h.broadcast(user, protocol.TagEvent,
		[]byte(user), []byte("DISCONNECTED"), nil, []byte(e.TimeString()))
	h.logger.Info("user disconnected", "user", user)
}

func (h *Hub) onFrame(conn *Connection, fr protocol.Frame) {
	switch fr.Header {
	case protocol.TagEvent:
		h.onEvent(conn, fr.Body)
	case protocol.TagRegPhoto:
		h.onRegPhoto(conn, fr.Body)
	case protocol.TagRegColor:
		h.onRegColor(conn, fr.Body)
	case protocol.TagJoinProject:
		h.onJoinProject(conn, fr.Body)
	case protocol.TagChat:
		h.onChat(conn, fr.Body)
	case protocol.TagReqMembers:
		h.onReqMembers(conn)
	case protocol.TagReqOnline:
		h.onReqOnline(conn, fr.Body)
	case protocol.TagReqPhoto:
		h.onReqPhoto(conn, fr.Body)
	case protocol.TagReqColor:
		h.onReqColor(conn, fr.Body)
	case protocol.TagReqEvents:
		h.onReqEvents(conn, fr.Body)
	case protocol.TagReqTimeSpan:
		h.onReqTimeSpan(conn)
	case protocol.TagReqProjects:
		h.onReqProjects(conn)
	case protocol.TagReqLocation:
		h.onReqLocation(conn, fr.Body)
	case protocol.TagReqRecent:
		h.onReqRecent(conn, fr.Body)
	default:
		h.logger.Warn("unhandled frame", "header", fr.Header, "user", conn.UserName())
	}
}

// onEvent registra o evento do sender e o repassa aos colegas de
// projeto, nunca de volta ao próprio sender.
func (h *Hub) onEvent(conn *Connection, body []byte) {
	user := conn.UserName()
	fields := protocol.SplitFields(body, 2)
	eventType := string(fields[0])
	params := ""
	if len(fields) > 1 {
		params = string(fields[1])
	}

	e := event.New(user, eventType, params, "")
	h.append(e)
	h.broadcast(user, protocol.TagEvent,
		[]byte(user), []byte(eventType), []byte(params), []byte(e.TimeString()))
}

// onRegPhoto guarda a foto como <user>.<suffix>, atualiza o diretório
// de usuários e repassa a foto nova aos colegas de projeto.
func (h *Hub) onRegPhoto(conn *Connection, body []byte) {
	user := conn.UserName()
	fields := protocol.SplitFields(body, 2)
	if len(fields) < 2 {
		h.logger.Warn("malformed photo registration", "user", user)
		return
	}

	fileName := user + "." + string(fields[0])
	data := fields[1]
	// O PHOTO_REPLY carrega fileName#data e precisa caber num frame;
	// uma foto que estoura esse limite não pode ser retransmitida.
	if len(fileName)+1+len(data) > protocol.MaxBufferSize {
		h.logger.Warn("photo too large to relay", "user", user, "bytes", len(data))
		return
	}
	if err := h.blobs.Put(context.Background(), fileName, data); err != nil {
		h.logger.Error("storing photo", "user", user, "error", err)
		return
	}
	if err := h.store.SetImage(user, fileName); err != nil {
		h.logger.Error("updating user image", "user", user, "error", err)
	}

	h.append(event.New(user, "Register Photo", "", ""))
	h.broadcast(user, protocol.TagPhotoReply, []byte(fileName), data)
}

func (h *Hub) onRegColor(conn *Connection, body []byte) {
	user := conn.UserName()
	color := string(body)
	if err := h.store.SetColor(user, color); err != nil {
		h.logger.Error("updating user color", "user", user, "error", err)
		return
	}

	h.append(event.New(user, "Register Color", color, ""))
	h.broadcast(user, protocol.TagColorReply, []byte(user), []byte(color))
}

// onJoinProject troca o sender de projeto: DISCONNECTED para o projeto
// antigo, JOINED para o novo, ambos registrados.
func (h *Hub) onJoinProject(conn *Connection, body []byte) {
	user := conn.UserName()
	project := string(body)

	old, err := h.store.Project(user)
	if err != nil {
		h.logger.Error("querying current project", "user", user, "error", err)
	}
	if old != "" && old != project {
		e := event.New(user, "DISCONNECTED", old, "")
		h.append(e)
		h.broadcastToProject(old, user, protocol.TagEvent,
			[]byte(user), []byte("DISCONNECTED"), []byte(old), []byte(e.TimeString()))
	}

	if err := h.store.SetProject(user, project); err != nil {
		h.logger.Error("updating user project", "user", user, "error", err)
		return
	}

	e := event.New(user, "JOINED", project, "")
	h.append(e)
	h.broadcastToProject(project, user, protocol.TagEvent,
		[]byte(user), []byte("JOINED"), []byte(project), []byte(e.TimeString()))
	h.logger.Info("user joined project", "user", user, "project", project)
}

// onChat entrega a mensagem a cada destinatário Ready. Chat não passa
// pelo log de eventos.
func (h *Hub) onChat(conn *Connection, body []byte) {
	user := conn.UserName()
	fields := protocol.SplitFields(body, 2)
	if len(fields) < 2 {
		h.logger.Warn("malformed chat", "user", user)
		return
	}

	content := fields[1]
	for _, recipient := range protocol.SplitList(fields[0]) {
		peer := h.registry.Lookup(recipient)
		if peer == nil || !peer.Ready() {
			continue
		}
		peer.Send(protocol.TagChat, []byte(user), content)
	}
}

func (h *Hub) onReqMembers(conn *Connection) {
	user := conn.UserName()
	project, err := h.store.Project(user)
	if err != nil {
		h.logger.Error("querying project for member list", "user", user, "error", err)
		return
	}
	members, err := h.store.ProjectMembers(project)
	if err != nil {
		h.logger.Error("querying project members", "user", user, "error", err)
		return
	}

	conn.SendStrings(protocol.TagMembersReply, members...)
	h.append(event.New(user, "Request Teammembers", project, ""))
}

// onReqOnline responde a presença do alvo. A fonte da verdade é o
// Registry: um nome registrado é um peer online.
func (h *Hub) onReqOnline(conn *Connection, body []byte) {
	user := conn.UserName()
	target := string(body)

	status := "FALSE"
	if h.registry.Contains(target) {
		status = "TRUE"
	}
	conn.SendStrings(protocol.TagOnlineReply, target, status)
	h.append(event.New(user, "Request Online", target, ""))
}

// onReqPhoto responde com a foto do alvo. Na ausência não há reply:
// apenas a falha é registrada no log do servidor.
func (h *Hub) onReqPhoto(conn *Connection, body []byte) {
	user := conn.UserName()
	target := string(body)

	fileName, err := h.store.Image(target)
	if err != nil {
		h.logger.Error("querying image name", "target", target, "error", err)
		return
	}
	if fileName == "" {
		fileName = target + ".png"
	}

	data, err := h.blobs.Get(context.Background(), fileName)
	if errors.Is(err, blob.ErrNotFound) {
		h.logger.Info("Failed: Request photo of " + target)
		return
	}
	if err != nil {
		h.logger.Error("reading photo", "target", target, "error", err)
		return
	}

	conn.Send(protocol.TagPhotoReply, []byte(fileName), data)
	h.append(event.New(user, "Request Photo", target, ""))
}

func (h *Hub) onReqColor(conn *Connection, body []byte) {
	user := conn.UserName()
	target := string(body)

	color, err := h.store.Color(target)
	if err != nil {
		h.logger.Error("querying color", "target", target, "error", err)
		return
	}
	conn.SendStrings(protocol.TagColorReply, target, color)
	h.append(event.New(user, "Request Color", target, ""))
}

// onReqEvents consulta o histórico com os filtros do body, agrupa por
// fases com a fuzziness pedida e streama cada evento como EVENTS_REPLY.
// Body: users;… # types;… # start;end # phases;… # fuzziness.
func (h *Hub) onReqEvents(conn *Connection, body []byte) {
	user := conn.UserName()
	fields := protocol.SplitFields(body, 5)
	if len(fields) < 5 {
		h.logger.Warn("malformed events request", "user", user)
		return
	}

	filter := store.Filter{
		Users: protocol.SplitList(fields[0]),
		Types: protocol.SplitList(fields[1]),
	}
	if span := protocol.SplitList(fields[2]); len(span) == 2 {
		filter.Start, filter.End = span[0], span[1]
	}
	phases := protocol.SplitList(fields[3])
	fuzziness, err := strconv.Atoi(string(fields[4]))
	if err != nil {
		h.logger.Warn("malformed fuzziness", "user", user, "value", string(fields[4]))
		return
	}

	events, err := h.store.Query(filter)
	if err != nil {
		h.logger.Error("querying events", "user", user, "error", err)
		return
	}

	divider := event.NewPhaseDivider(events, fuzziness)
	for _, e := range divider.Events(phases) {
		conn.SendStrings(protocol.TagEventsReply,
			e.UserName, e.EventType, e.Parameters, e.TimeString())
	}
	h.append(event.New(user, "Request Events", "", ""))
}

func (h *Hub) onReqTimeSpan(conn *Connection) {
	user := conn.UserName()
	start, end, err := h.store.TimeSpan()
	if errors.Is(err, store.ErrNoEvents) {
		h.logger.Info("time span requested on empty log", "user", user)
		return
	}
	if err != nil {
		h.logger.Error("querying time span", "user", user, "error", err)
		return
	}

	conn.SendStrings(protocol.TagTimeSpanReply, start, end)
	h.append(event.New(user, "Request Timespan", "", ""))
}

func (h *Hub) onReqProjects(conn *Connection) {
	user := conn.UserName()
	projects, err := h.store.Projects()
	if err != nil {
		h.logger.Error("querying projects", "user", user, "error", err)
		return
	}

	conn.SendStrings(protocol.TagProjectsReply, projects...)
	h.append(event.New(user, "Request Projects", "", ""))
}

// onReqLocation responde com o SAVE mais recente do alvo, como um frame
// EVENT endereçado só ao sender.
func (h *Hub) onReqLocation(conn *Connection, body []byte) {
	user := conn.UserName()
	target := string(body)

	events, err := h.store.Query(store.Filter{
		Users: []string{target},
		Types: []string{"SAVE"},
	})
	if err != nil {
		h.logger.Error("querying location", "target", target, "error", err)
		return
	}
	if len(events) == 0 {
		h.logger.Info("no location recorded", "target", target)
		return
	}

	last := events[len(events)-1]
	conn.SendStrings(protocol.TagEvent,
		last.UserName, last.EventType, last.Parameters, last.TimeString())
	h.append(event.New(user, "Request Location", target, ""))
}

// onReqRecent streama os n eventos mais recentes como RECENT_EVENT.
func (h *Hub) onReqRecent(conn *Connection, body []byte) {
	user := conn.UserName()
	n, err := strconv.Atoi(string(body))
	if err != nil || n <= 0 {
		h.logger.Warn("malformed recent request", "user", user, "value", string(body))
		return
	}

	events, err := h.store.Recent(n)
	if err != nil {
		h.logger.Error("querying recent events", "user", user, "error", err)
		return
	}
	for _, e := range events {
		conn.SendStrings(protocol.TagRecentEvent,
			e.UserName, e.EventType, e.Parameters, e.TimeString())
	}
	h.append(event.New(user, "Request Recent", string(body), ""))
}

// broadcast envia o frame a todos os colegas de projeto do sender,
// nunca ao próprio sender. Destinatários offline são pulados.
func (h *Hub) broadcast(sender, header string, bodies ...[]byte) {
	project, err := h.store.Project(sender)
	if err != nil {
		h.logger.Error("querying project for broadcast", "user", sender, "error", err)
		return
	}
	h.broadcastToProject(project, sender, header, bodies...)
}

func (h *Hub) broadcastToProject(project, sender, header string, bodies ...[]byte) {
	members, err := h.store.ProjectMembers(project)
	if err != nil {
		h.logger.Error("querying members for broadcast", "project", project, "error", err)
		return
	}

	for _, member := range members {
		if member == sender {
			continue
		}
		peer := h.registry.Lookup(member)
		if peer == nil || !peer.Ready() {
			continue
		}
		peer.Send(header, bodies...)
	}
}

func (h *Hub) append(e event.Event) {
	if err := h.store.Append(e); err != nil {
		h.logger.Error("appending event log", "user", e.UserName,
			"event", e.EventType, "error", err)
	}
}
