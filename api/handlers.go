/*
handlers.go - HTTP API handlers for the formula explorer

PURPOSE:
  Exposes the concept and payroll services via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Concepts:
    GET    /api/conceptos                      List all concepts (summaries)
    GET    /api/conceptos/buscar?q=            Search by code or description
    POST   /api/conceptos/batch                Several details at once
    GET    /api/conceptos/{codigo}             Full detail with parsed formula
    GET    /api/conceptos/{codigo}/dependencias  Codes this concept references
    GET    /api/conceptos/{codigo}/dependientes  Codes referencing this concept
    GET    /api/conceptos/rango/{inicio}/{fin} Expand a range variable

  Dependency cache:
    POST   /api/conceptos/cache/refresh        Rebuild the reverse index
    GET    /api/conceptos/cache/stats          Index summary
    GET    /api/conceptos/debug/{codigo}       How the index sees one code

  Payroll:
    GET    /api/liquidacion                    Period aggregates per concept
    GET    /api/liquidacion/concepto/{codigo}  One concept's aggregate
    GET    /api/liquidacion/tipos              Liquidation type catalog
    GET    /api/liquidacion/legajos            Employees settled in a period
    GET    /api/liquidacion/anios              Selectable years

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown concept or settled line, empty body
  - 500: Store failures, with details

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/deps"
	"github.com/upcn/formu/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the services the endpoints delegate to.
type Handler struct {
	Concepts *concepts.Service
	Index    *deps.Index
	Payroll  *payroll.Service
	Log      zerolog.Logger
}

// NewHandler creates a handler over the three services.
func NewHandler(conceptSvc *concepts.Service, index *deps.Index, payrollSvc *payroll.Service, log zerolog.Logger) *Handler {
	return &Handler{
		Concepts: conceptSvc,
		Index:    index,
		Payroll:  payrollSvc,
		Log:      log,
	}
}

// =============================================================================
// CONCEPT ENDPOINTS
// =============================================================================

// ListConceptos returns every concept as a summary.
// GET /api/conceptos
func (h *Handler) ListConceptos(w http.ResponseWriter, r *http.Request) {
	all, err := h.Concepts.List(r.Context())
	if err != nil {
		h.serverError(w, "Failed to list concepts", err)
		return
	}

	dtos := make([]ConceptoDTO, 0, len(all))
	for _, c := range all {
		dtos = append(dtos, toConceptoDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// BuscarConceptos searches by partial code or description.
// GET /api/conceptos/buscar?q=sueldo
func (h *Handler) BuscarConceptos(w http.ResponseWriter, r *http.Request) {
	found, err := h.Concepts.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.serverError(w, "Failed to search concepts", err)
		return
	}

	dtos := make([]ConceptoDTO, 0, len(found))
	for _, c := range found {
		dtos = append(dtos, toConceptoDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConcepto returns one concept with its formula and condition parsed
// and both dependency directions resolved.
// GET /api/conceptos/{codigo}
func (h *Handler) GetConcepto(w http.ResponseWriter, r *http.Request) {
	codigo := chi.URLParam(r, "codigo")

	d, err := h.Concepts.Detail(r.Context(), codigo)
	if errors.Is(err, concepts.ErrConceptNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "Failed to load concept", err)
		return
	}
	writeJSON(w, http.StatusOK, toConceptoDetailDTO(*d))
}

// GetConceptosBatch resolves several details at once. The body is a
// JSON array of codes; unknown codes are skipped.
// POST /api/conceptos/batch
func (h *Handler) GetConceptosBatch(w http.ResponseWriter, r *http.Request) {
	var codigos []string
	if err := json.NewDecoder(r.Body).Decode(&codigos); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	details, err := h.Concepts.DetailBatch(r.Context(), codigos)
	if err != nil {
		h.serverError(w, "Failed to load concepts", err)
		return
	}

	dtos := make([]ConceptoDTO, 0, len(details))
	for _, d := range details {
		dtos = append(dtos, toConceptoDetailDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConceptosEnRango expands a range variable into its member
// concepts. The range id is the tipoRango prefix glued to the bounds,
// which is how range variables name themselves.
// GET /api/conceptos/rango/{inicio}/{fin}?tipoRango=SC
func (h *Handler) GetConceptosEnRango(w http.ResponseWriter, r *http.Request) {
	inicio := chi.URLParam(r, "inicio")
	fin := chi.URLParam(r, "fin")
	if !isNumeric(inicio) || !isNumeric(fin) {
		writeError(w, http.StatusBadRequest, "Range bounds must be numeric", nil)
		return
	}
	tipoRango := r.URL.Query().Get("tipoRango")

	listing, err := h.Concepts.RangeListing(r.Context(), tipoRango+inicio+fin, inicio, fin)
	if err != nil {
		h.serverError(w, "Failed to expand range", err)
		return
	}
	writeJSON(w, http.StatusOK, toRangoDTO(*listing))
}

// GetDependencias returns the codes a concept references.
// GET /api/conceptos/{codigo}/dependencias
func (h *Handler) GetDependencias(w http.ResponseWriter, r *http.Request) {
	codigo := chi.URLParam(r, "codigo")

	d, err := h.Concepts.Detail(r.Context(), codigo)
	if errors.Is(err, concepts.ErrConceptNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "Failed to load concept", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(d.Dependencies))
}

// GetDependientes returns the codes referencing a concept. Served from
// the index alone, so unknown codes answer an empty list, not 404.
// GET /api/conceptos/{codigo}/dependientes
func (h *Handler) GetDependientes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Index.Dependents(chi.URLParam(r, "codigo")))
}

// =============================================================================
// DEPENDENCY CACHE ENDPOINTS
// =============================================================================

// RefreshCache rebuilds the reverse index and reports the new stats.
// POST /api/conceptos/cache/refresh
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Concepts.RefreshIndex(r.Context()); err != nil {
		h.serverError(w, "Failed to refresh dependency cache", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Index.Stats())
}

// CacheStats reports the index summary.
// GET /api/conceptos/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Index.Stats())
}

// DebugConcepto explains how the index currently sees one code.
// GET /api/conceptos/debug/{codigo}
func (h *Handler) DebugConcepto(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Index.Debug(chi.URLParam(r, "codigo")))
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

// GetLiquidaciones returns the period aggregates keyed by concept code.
// GET /api/liquidacion?anio=2024&mes=12&tipo=1&legajo=12345
func (h *Handler) GetLiquidaciones(w http.ResponseWriter, r *http.Request) {
	anio, mes, tipo, ok := periodParams(w, r)
	if !ok {
		return
	}
	legajo := r.URL.Query().Get("legajo")

	aggs, err := h.Payroll.AggregatePeriod(r.Context(), anio, mes, tipo, legajo)
	if err != nil {
		h.serverError(w, "Failed to load liquidation", err)
		return
	}

	out := make(map[string]LiquidacionDTO, len(aggs))
	for _, agg := range aggs {
		out[agg.ConceptCode] = toLiquidacionDTO(agg)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetLiquidacionConcepto returns one concept's aggregate for a period.
// GET /api/liquidacion/concepto/{codigo}?anio=2024&mes=12
func (h *Handler) GetLiquidacionConcepto(w http.ResponseWriter, r *http.Request) {
	codigo := chi.URLParam(r, "codigo")
	anio, mes, tipo, ok := periodParams(w, r)
	if !ok {
		return
	}
	legajo := r.URL.Query().Get("legajo")

	agg, err := h.Payroll.ConceptAggregate(r.Context(), anio, mes, tipo, legajo, codigo)
	if errors.Is(err, payroll.ErrLineNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "Failed to load liquidation", err)
		return
	}
	writeJSON(w, http.StatusOK, toLiquidacionDTO(agg))
}

// GetTiposLiquidacion returns the liquidation type catalog.
// GET /api/liquidacion/tipos
func (h *Handler) GetTiposLiquidacion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Payroll.LiqTypes(r.Context()))
}

// GetLegajos returns the employees settled in a period.
// GET /api/liquidacion/legajos?anio=2024&mes=12
func (h *Handler) GetLegajos(w http.ResponseWriter, r *http.Request) {
	anio, ok := queryInt(w, r, "anio")
	if !ok {
		return
	}
	mes, ok := queryInt(w, r, "mes")
	if !ok {
		return
	}

	employees, err := h.Payroll.Employees(r.Context(), anio, mes)
	if err != nil {
		h.serverError(w, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(employees))
}

// GetAnios returns the selectable period years, newest first.
// GET /api/liquidacion/anios
func (h *Handler) GetAnios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Payroll.Years())
}

// =============================================================================
// HELPERS
// =============================================================================

// periodParams parses the anio/mes/tipo query parameters shared by the
// liquidation endpoints. Absent values stay zero so the service applies
// its defaults; non-numeric values answer 400.
func periodParams(w http.ResponseWriter, r *http.Request) (anio, mes int, tipo string, ok bool) {
	anio, ok = queryInt(w, r, "anio")
	if !ok {
		return 0, 0, "", false
	}
	mes, ok = queryInt(w, r, "mes")
	if !ok {
		return 0, 0, "", false
	}
	tipoNum, ok := queryInt(w, r, "tipo")
	if !ok {
		return 0, 0, "", false
	}
	if tipoNum != 0 {
		tipo = strconv.Itoa(tipoNum)
	}
	return anio, mes, tipo, true
}

// queryInt parses an optional numeric query parameter, writing a 400
// and returning ok=false when it is present but not a number.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Parameter "+name+" must be numeric", err)
		return 0, false
	}
	return n, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, message string, err error) {
	h.Log.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
