package api

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/lobby"
	"github.com/hexcoop/hexcoop/transport/websocket"
)

// Server is the HTTP front of the game server.
type Server struct {
	lobby  *lobby.Lobby
	hub    *websocket.Hub
	router *mux.Router
	log    *zap.Logger

	// Asset ids are indices into the sorted listing of the assets
	// directory, taken once at startup.
	assets []asset
}

type asset struct {
	Path string `json:"-"`
	Name string `json:"name"`
	MD5  string `json:"md5"`
}

// NewServer builds the router. The assets directory may be absent; the
// asset table is simply empty then.
func NewServer(l *lobby.Lobby, hub *websocket.Hub, assetsDir string, log *zap.Logger) *Server {
	s := &Server{
		lobby:  l,
		hub:    hub,
		router: mux.NewRouter(),
		log:    log.Named("api"),
	}
	s.loadAssets(assetsDir)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/player_endpoint", s.hub.ServeWS)
	s.router.HandleFunc("/assets/{id}", s.handleAsset).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"server": "hexcoop",
		"endpoints": map[string]string{
			"status":          "/status",
			"player_endpoint": "/player_endpoint",
			"assets":          "/assets/{id}",
		},
		"stats":  s.lobby.Stats(),
		"assets": s.assets,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.lobby.Stats())
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 0 || id >= len(s.assets) {
		respondError(w, http.StatusNotFound, "unknown asset id")
		return
	}
	a := s.assets[id]
	w.Header().Set("ETag", `"`+a.MD5+`"`)
	http.ServeFile(w, r, a.Path)
}

// loadAssets indexes the assets directory. Clients address assets by index,
// so the listing is sorted to keep ids stable across restarts.
func (s *Server) loadAssets(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Info("no assets directory", zap.String("dir", dir))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("unreadable asset", zap.String("path", path), zap.Error(err))
			continue
		}
		sum := md5.Sum(data)
		s.assets = append(s.assets, asset{
			Path: path,
			Name: name,
			MD5:  hex.EncodeToString(sum[:]),
		})
	}
	s.log.Info("assets indexed", zap.Int("count", len(s.assets)))
}
