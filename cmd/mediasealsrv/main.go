// Command mediasealsrv is the HTTP front-end for uploading a file and
// getting back a verification report.
package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digitorus/mediaseal/config"
	"github.com/digitorus/mediaseal/keystore"
	"github.com/digitorus/mediaseal/provenance"
)

func main() {
	cfg, err := config.Read("config.toml")
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	store := keystore.New(cfg.Paths.KeysDir)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/", healthHandler)
	r.Post("/verify/", verifyHandler(store))

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("mediasealsrv listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "online"})
}

func verifyHandler(store *keystore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status": "error", "message": "missing \"file\" form field",
			})
			return
		}
		defer file.Close()

		tmp, err := os.CreateTemp("", "mediasealsrv-*"+filepath.Ext(header.Filename))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "error", "message": "failed to stage upload",
			})
			return
		}
		tmpPath := tmp.Name()
		defer os.Remove(tmpPath)

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "error", "message": "failed to save upload",
			})
			return
		}
		tmp.Close()

		report := provenance.Verify(store, tmpPath)
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
