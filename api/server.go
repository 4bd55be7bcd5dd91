/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/conceptos/*      Concept catalog, search, details and ranges
  /api/liquidacion/*    Payroll aggregates and period catalogs
  /*                    Static files (frontend)

STATIC FILE SERVING:
  In production, serves the built frontend from web/dist/.
  Falls back to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. The
// allowed CORS origins come from configuration so the deployed frontend
// host can be added without a rebuild.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Concept routes
		r.Route("/conceptos", func(r chi.Router) {
			r.Get("/", h.ListConceptos)
			r.Get("/buscar", h.BuscarConceptos)
			r.Post("/batch", h.GetConceptosBatch)
			r.Get("/rango/{inicio}/{fin}", h.GetConceptosEnRango)
			r.Post("/cache/refresh", h.RefreshCache)
			r.Get("/cache/stats", h.CacheStats)
			r.Get("/debug/{codigo}", h.DebugConcepto)
			r.Get("/{codigo}", h.GetConcepto)
			r.Get("/{codigo}/dependencias", h.GetDependencias)
			r.Get("/{codigo}/dependientes", h.GetDependientes)
		})

		// Payroll routes
		r.Route("/liquidacion", func(r chi.Router) {
			r.Get("/", h.GetLiquidaciones)
			r.Get("/concepto/{codigo}", h.GetLiquidacionConcepto)
			r.Get("/tipos", h.GetTiposLiquidacion)
			r.Get("/legajos", h.GetLegajos)
			r.Get("/anios", h.GetAnios)
		})
	})

	// Serve static files (frontend build)
	// First try ./web/dist (development), then fall back to message
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			fullPath := filepath.Join(staticDir, path)

			// Check if file exists
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Explorador de Fórmulas</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>API Explorador de Fórmulas</h1>
<p>El frontend no está compilado. Ejecutar <code>cd web && npm install && npm run build</code></p>
<h2>Endpoints</h2>
<ul>
<li><a href="/api/conceptos/">/api/conceptos</a> - Listado de conceptos</li>
<li><a href="/api/conceptos/buscar?q=sueldo">/api/conceptos/buscar?q=</a> - Búsqueda</li>
<li><a href="/api/conceptos/cache/stats">/api/conceptos/cache/stats</a> - Estado del caché</li>
<li><a href="/api/liquidacion/">/api/liquidacion</a> - Importes liquidados</li>
<li><a href="/api/liquidacion/tipos">/api/liquidacion/tipos</a> - Tipos de liquidación</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
