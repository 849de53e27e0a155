package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/sequence"
)

type Server struct {
	cfg      Config
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex // protects documents
	documents map[string]*document
}

// WSMessage is exchanged over websocket connections. Clients send "ops";
// the server sends "snapshot" once, then "ops" and "error".
type WSMessage struct {
	Type    string          `json:"type"`
	Replica string          `json:"replica,omitempty"`
	Doc     json.RawMessage `json:"doc,omitempty"`
	Ops     []string        `json:"ops,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type DocumentRequest struct {
	Pos   int    `json:"pos"`
	Value string `json:"value,omitempty"`
}

type OpsRequest struct {
	Ops []string `json:"ops"`
}

type OpsResponse struct {
	Ops []string `json:"ops"`
}

type DocumentResponse struct {
	Content  []string        `json:"content"`
	Depth    int             `json:"depth"`
	Snapshot json.RawMessage `json:"snapshot"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		log:       logger,
		documents: make(map[string]*document),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/docs/{doc}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/docs/{doc}/ops", s.handleOps).Methods(http.MethodPost)
	r.HandleFunc("/docs/{doc}/insert", s.handleInsert).Methods(http.MethodPost)
	r.HandleFunc("/docs/{doc}/remove", s.handleRemove).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) getDocument(id string) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, exists := s.documents[id]; exists {
		return doc, nil
	}
	doc, err := newDocument(id, s.cfg.LSEQ, s.log)
	if err != nil {
		return nil, err
	}
	s.documents[id] = doc
	s.log.Info("document created", "doc", id)
	return doc, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) docFromRequest(w http.ResponseWriter, r *http.Request) (*document, bool) {
	doc, err := s.getDocument(mux.Vars(r)["doc"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return doc, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.docFromRequest(w, r)
	if !ok {
		return
	}
	view, err := doc.view()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	var req OpsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, ok := s.docFromRequest(w, r)
	if !ok {
		return
	}

	novel, err := doc.apply(req.Ops, nil)
	if err != nil {
		s.log.Warn("rejected ops", "doc", doc.id, "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.log.Debug("ops applied", "doc", doc.id, "received", len(req.Ops), "novel", len(novel))
	writeJSON(w, http.StatusOK, OpsResponse{Ops: novel})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, ok := s.docFromRequest(w, r)
	if !ok {
		return
	}

	s.log.Info("insert", "doc", doc.id, "pos", req.Pos, "value", req.Value)
	text, err := doc.insert(req.Value, req.Pos)
	if errors.Is(err, sequence.ErrRange) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, OpsResponse{Ops: []string{text}})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, ok := s.docFromRequest(w, r)
	if !ok {
		return
	}

	s.log.Info("remove", "doc", doc.id, "pos", req.Pos)
	text, removed, err := doc.remove(req.Pos)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ops := []string{}
	if removed {
		ops = append(ops, text)
	}
	writeJSON(w, http.StatusOK, OpsResponse{Ops: ops})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc")
	if docID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing doc"))
		return
	}
	replica := r.URL.Query().Get("replica")
	if replica == "" {
		replica = uuid.NewString()
	} else if !ident.ValidSite(replica) {
		writeError(w, http.StatusBadRequest, errors.New("invalid replica"))
		return
	}
	doc, err := s.getDocument(docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{replica: replica, send: make(chan []byte, s.cfg.SendBuffer)}
	if err := doc.join(c); err != nil {
		s.log.Error("join failed", "doc", docID, "error", err)
		return
	}
	defer doc.leave(c)
	s.log.Info("client connected", "doc", docID, "replica", replica)

	go func() {
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "ops":
			if _, err := doc.apply(msg.Ops, c); err != nil {
				doc.reply(c, WSMessage{Type: "error", Error: err.Error()})
			}
		default:
			doc.reply(c, WSMessage{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}

	s.log.Info("client disconnected", "doc", docID, "replica", replica)
}
