package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"map18xx.dev/internal/indexdb"
	"map18xx.dev/internal/session"
	"map18xx.dev/internal/transport/ws"
)

func newMux(store *session.Store, idx *indexdb.Index, wsSrv *ws.Server, enableAdmin bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, store)
	})
	if enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/sessions/", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			id := strings.TrimPrefix(r.URL.Path, "/admin/v1/sessions/")
			if id == "" || strings.Contains(id, "/") {
				http.Error(rw, "bad session id", http.StatusBadRequest)
				return
			}
			if idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			sum, err := idx.Latest(r.Context(), id)
			if errors.Is(err, indexdb.ErrNotFound) {
				http.Error(rw, err.Error(), http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(sum)
		})
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	return mux
}

func writeMetrics(rw http.ResponseWriter, store *session.Store) {
	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP map18xx_sessions Open game sessions.\n")
	fmt.Fprintf(rw, "# TYPE map18xx_sessions gauge\n")
	sessions := store.Sessions()
	fmt.Fprintf(rw, "map18xx_sessions %d\n", len(sessions))
	fmt.Fprintf(rw, "# HELP map18xx_session_clients Connected clients per session.\n")
	fmt.Fprintf(rw, "# TYPE map18xx_session_clients gauge\n")
	for _, s := range sessions {
		fmt.Fprintf(rw, "map18xx_session_clients{session=%q} %d\n", s.ID, s.Clients())
	}
	fmt.Fprintf(rw, "# HELP map18xx_session_actions Actions in the session log.\n")
	fmt.Fprintf(rw, "# TYPE map18xx_session_actions gauge\n")
	for _, s := range sessions {
		fmt.Fprintf(rw, "map18xx_session_actions{session=%q} %d\n", s.ID, s.Log().Len())
	}
	fmt.Fprintf(rw, "# HELP map18xx_replay_cache_total Reconstruction cache lookups.\n")
	fmt.Fprintf(rw, "# TYPE map18xx_replay_cache_total counter\n")
	for _, s := range sessions {
		hits, misses := s.CacheStats()
		fmt.Fprintf(rw, "map18xx_replay_cache_total{session=%q,result=%q} %d\n", s.ID, "hit", hits)
		fmt.Fprintf(rw, "map18xx_replay_cache_total{session=%q,result=%q} %d\n", s.ID, "miss", misses)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
