package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fwojciec/sapnhap"
)

// DefaultLookupLimit caps lookup results when no limit is given.
const DefaultLookupLimit = 100

// Handler serves read-only JSON lookups over stored merger records.
type Handler struct {
	mux     *http.ServeMux
	records sapnhap.RecordService
	logger  *slog.Logger
}

// NewHandler creates a Handler backed by records. A nil logger discards
// error logs.
func NewHandler(records sapnhap.RecordService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		mux:     http.NewServeMux(),
		records: records,
		logger:  logger,
	}
	h.mux.HandleFunc("GET /provinces", h.handleProvinces)
	h.mux.HandleFunc("GET /communes", h.handleCommunes)
	h.mux.HandleFunc("GET /lookup", h.handleLookup)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.records.FindProvinces(r.Context())
	if err != nil {
		h.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provinces)
}

func (h *Handler) handleCommunes(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("province")
	if code == "" {
		h.error(w, r, sapnhap.Errorf(sapnhap.EINVALID, "province parameter required"))
		return
	}
	communes, err := h.records.FindCommunes(r.Context(), code)
	if err != nil {
		h.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, communes)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter sapnhap.RecordFilter
	set := func(dst **string, key string) {
		if v := q.Get(key); v != "" {
			*dst = &v
		}
	}
	set(&filter.ProvinceCode, "province")
	set(&filter.CommuneCode, "commune")
	set(&filter.ProvinceName, "province_name")
	set(&filter.CommuneName, "commune_name")
	set(&filter.Before, "before")

	if filter.ProvinceCode == nil && filter.CommuneCode == nil && filter.ProvinceName == nil &&
		filter.CommuneName == nil && filter.Before == nil {
		h.error(w, r, sapnhap.Errorf(sapnhap.EINVALID, "at least one of province, commune, province_name, commune_name, before required"))
		return
	}

	filter.Limit = DefaultLookupLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.error(w, r, sapnhap.Errorf(sapnhap.EINVALID, "invalid limit %q", v))
			return
		}
		filter.Limit = n
	}

	records, err := h.records.FindRecords(r.Context(), filter)
	if err != nil {
		h.error(w, r, err)
		return
	}
	if len(records) == 0 {
		h.error(w, r, sapnhap.Errorf(sapnhap.ENOTFOUND, "no merger information found"))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

var codes = map[string]int{
	sapnhap.ECONFLICT: http.StatusConflict,
	sapnhap.EINVALID:  http.StatusBadRequest,
	sapnhap.ENOTFOUND: http.StatusNotFound,
	sapnhap.EINTERNAL: http.StatusInternalServerError,
}

// error writes err as JSON with a status derived from its code.
// Internal errors are logged and their details hidden.
func (h *Handler) error(w http.ResponseWriter, r *http.Request, err error) {
	code := sapnhap.ErrorCode(err)
	if code == sapnhap.EINTERNAL {
		h.logger.Error("lookup failed", "path", r.URL.Path, "error", err)
	}
	status, ok := codes[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": sapnhap.ErrorMessage(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
