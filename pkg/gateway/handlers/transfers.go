package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/warmline/warmline/pkg/core"
	"github.com/warmline/warmline/pkg/store"
)

// TransferRecordsHandler serves the persisted transfer history at
// /transfers and /transfers/{id}. Absent a configured store the routes
// are still mounted; the in-memory store backs them.
type TransferRecordsHandler struct {
	Store store.Store
}

type transfersResponse struct {
	Transfers []store.TransferRecord `json:"transfers"`
}

func (h TransferRecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/transfers")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		h.list(w, r)
		return
	}
	if strings.Contains(rest, "/") {
		writeError(w, r, core.NewNotFoundError("no such resource"))
		return
	}
	h.get(w, r, rest)
}

func (h TransferRecordsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, core.NewInvalidRequestErrorWithParam("limit must be a positive integer", "limit"))
			return
		}
		limit = n
	}
	roomID := r.URL.Query().Get("room_id")

	recs, err := h.Store.ListTransfers(r.Context(), roomID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []store.TransferRecord{}
	}
	writeJSON(w, http.StatusOK, transfersResponse{Transfers: recs})
}

func (h TransferRecordsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.Store.GetTransfer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
