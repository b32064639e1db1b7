package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || appConfig == nil {
			return true
		}
		for _, allowed := range appConfig.AllowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	},
}

// LiveFeed upgrades to a WebSocket and streams public created/status-changed
// events. An optional county query parameter narrows the stream to one
// county. Read-only: anything the client sends is discarded.
func LiveFeed(w http.ResponseWriter, r *http.Request) {
	county := strings.TrimSpace(r.URL.Query().Get("county"))
	if county != "" && !models.ValidCounty(county) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+county))
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := services.RegisterFeedConn(conn, county)
	defer func() {
		services.UnregisterFeedConn(sub)
		conn.Close()
	}()

	// Drain the connection; exiting the loop means the client is gone
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
