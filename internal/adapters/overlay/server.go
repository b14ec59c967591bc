package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const (
	TopicStatus      = "/overlay/status"
	TopicLevels      = "/overlay/levels"
	TopicCounts      = "/overlay/counts"
	TopicCreatorCode = "/ui/creatorCode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// overlays del OBS y el browser local
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Picker es quien acepta el level elegido en la UI de creator codes.
// Lo implementa service.QueueEngine.
type Picker interface {
	SpecifyLevelForCreator(ctx context.Context, creatorID string, level domain.CreatorLevel) bool
}

type Options struct {
	Prefix            string
	AcceptCreatorCode bool
	// directorio servido en /overlay/usr; vacío = no se sirve
	StaticDir string
}

type creatorInfo struct {
	CreatorID *string               `json:"creatorId"`
	Name      *string               `json:"name"`
	Levels    []domain.CreatorLevel `json:"levels"`
}

// Server empuja el estado de la cola a los overlays y recibe las
// elecciones de la UI de creator codes.
type Server struct {
	opts   Options
	router *mux.Router
	hub    *Hub

	mu      sync.Mutex
	status  []byte
	levels  []byte
	counts  []byte
	creator creatorInfo
	picker  Picker
}

func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
		hub:    NewHub(),
	}
	s.status = s.statusMessage(true)
	s.levels = []byte("[]")
	s.counts = []byte("{}")
	s.creator = creatorInfo{Levels: []domain.CreatorLevel{}}
	s.routes()
	return s
}

// Bind conecta el picker; el engine se construye después del server.
func (s *Server) Bind(p Picker) {
	s.mu.Lock()
	s.picker = p
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	for _, topic := range []string{TopicStatus, TopicLevels, TopicCounts} {
		s.router.HandleFunc(topic, s.serveTopic(topic, nil))
	}
	s.router.HandleFunc(TopicCreatorCode, s.serveTopic(TopicCreatorCode, s.handlePick))

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/overlay/usr/").Handler(
			http.StripPrefix("/overlay/usr/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}
}

func (s *Server) serveTopic(topic string, onMessage func([]byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[overlay] upgrade %s: %v", topic, err)
			return
		}
		conn := &Connection{Topic: topic, Send: make(chan []byte, 64)}

		s.mu.Lock()
		s.hub.Register(conn, s.current(topic))
		s.mu.Unlock()

		go writePump(ws, conn)
		go readPump(s.hub, ws, conn, onMessage)
	}
}

// current devuelve el último mensaje del topic. Requiere s.mu.
func (s *Server) current(topic string) []byte {
	switch topic {
	case TopicStatus:
		return s.status
	case TopicLevels:
		return s.levels
	case TopicCounts:
		return s.counts
	case TopicCreatorCode:
		return s.infoMessage()
	}
	return nil
}

func (s *Server) statusMessage(open bool) []byte {
	status := "closed"
	if open {
		status = "open"
	}
	b, _ := json.Marshal(map[string]any{
		"status":            status,
		"command":           s.opts.Prefix + "add",
		"acceptCreatorCode": s.opts.AcceptCreatorCode,
	})
	return b
}

func (s *Server) infoMessage() []byte {
	b, _ := json.Marshal(struct {
		creatorInfo
		Type string `json:"type"`
	}{s.creator, "info"})
	return b
}

// --- service.Notifier ---

func (s *Server) QueueChanged(entries []domain.Entry) {
	type item struct {
		Type  domain.EntryKind `json:"type"`
		Entry domain.Entry     `json:"entry"`
	}
	items := make([]item, len(entries))
	for i, e := range entries {
		items[i] = item{Type: e.Kind, Entry: e}
	}
	b, err := json.Marshal(items)
	if err != nil {
		log.Printf("[overlay] encode levels: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = b
	s.hub.Broadcast(TopicLevels, b)
}

func (s *Server) StatusChanged(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = s.statusMessage(open)
	s.hub.Broadcast(TopicStatus, s.status)
}

func (s *Server) CountsChanged(c domain.Counts) {
	b, err := json.Marshal(c)
	if err != nil {
		log.Printf("[overlay] encode counts: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = b
	s.hub.Broadcast(TopicCounts, b)
}

// --- service.CreatorPicker ---

func (s *Server) SetCreatorInfo(creatorID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creator = creatorInfo{CreatorID: &creatorID, Name: &name, Levels: []domain.CreatorLevel{}}
	s.hub.Broadcast(TopicCreatorCode, s.infoMessage())
}

func (s *Server) AddCreatorLevels(creatorID string, levels []domain.CreatorLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// páginas de un creator que ya no se está mostrando
	if s.creator.CreatorID == nil || *s.creator.CreatorID != creatorID {
		return
	}
	s.creator.Levels = append(s.creator.Levels, levels...)
	b, _ := json.Marshal(map[string]any{"type": "levels", "levels": levels})
	s.hub.Broadcast(TopicCreatorCode, b)
}

// PatchCreatorLevel actualiza una fila del picker (played/beaten/banned).
// Se engancha a cache.OnLevelChanged.
func (s *Server) PatchCreatorLevel(level domain.CreatorLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.creator.Levels {
		if s.creator.Levels[i].ID != level.ID {
			continue
		}
		s.creator.Levels[i] = level
		b, _ := json.Marshal(map[string]any{"type": "level-update", "level": level})
		s.hub.Broadcast(TopicCreatorCode, b)
		return
	}
}

func (s *Server) ClearCreatorInfo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Server) clearLocked() {
	s.creator = creatorInfo{Levels: []domain.CreatorLevel{}}
	s.hub.Broadcast(TopicCreatorCode, s.infoMessage())
}

type pickMessage struct {
	CreatorID string              `json:"creatorId"`
	Level     domain.CreatorLevel `json:"level"`
}

func (s *Server) handlePick(msg []byte) {
	var p pickMessage
	if err := json.Unmarshal(msg, &p); err != nil {
		log.Printf("[overlay] bad pick message: %v", err)
		return
	}

	s.mu.Lock()
	picker := s.picker
	s.mu.Unlock()
	if picker == nil || p.CreatorID == "" || p.Level.ID == "" {
		return
	}

	// el engine notifica a este server: no se llama con s.mu tomado
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if picker.SpecifyLevelForCreator(ctx, p.CreatorID, p.Level) {
		s.ClearCreatorInfo()
	}
}

// Serve escucha hasta que se cancela ctx.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Printf("[overlay] HTTP listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
