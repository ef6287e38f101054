package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/overlaphq/overlap/internal/api"
	"github.com/overlaphq/overlap/internal/db"
	"github.com/overlaphq/overlap/internal/middleware"
	"github.com/overlaphq/overlap/internal/utils"
)

func main() {
	addr := utils.SafeEnv("OVERLAP_ADDR", ":8080")
	commit := os.Getenv("OVERLAP_COMMIT")
	buildTime := os.Getenv("OVERLAP_BUILD_TIME")

	// Persistent store when OVERLAP_DB is set, in-memory otherwise.
	var store api.Store
	if path := os.Getenv("OVERLAP_DB"); path != "" {
		sqlStore, err := db.Open(path, os.Getenv("OVERLAP_MIGRATIONS_DIR"))
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
		log.Printf("using sqlite store at %s", path)
	} else {
		store = api.NewMemoryStore()
		log.Printf("using in-memory store; set OVERLAP_DB to persist sessions")
	}

	mux := http.NewServeMux()
	api.NewRouter(store).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Overlap API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Static frontend when OVERLAP_STATIC_DIR is set (fullstack image).
	if staticDir := os.Getenv("OVERLAP_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("Overlap server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
