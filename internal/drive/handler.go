package drive

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	files    Files
	importer *ImportService
	sync     *FolderSync
	folderID string
}

func NewHandler(files Files, importer *ImportService, sync *FolderSync, folderID string) *Handler {
	return &Handler{
		files:    files,
		importer: importer,
		sync:     sync,
		folderID: folderID,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/price-lists/import", h.ImportFile).Methods("POST")
	router.HandleFunc("/api/drive/price-lists/sync", h.SyncFolder).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		folderID = h.folderID
	}

	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	supported := make([]*File, 0, len(files))
	for _, f := range files {
		if Supported(f) {
			supported = append(supported, f)
		}
	}
	writeJSON(w, http.StatusOK, supported)
}

func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId parameter is required")
		return
	}

	list, err := h.importer.ImportFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *Handler) SyncFolder(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "price list folder is not configured")
		return
	}
	result, err := h.sync.Sync(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
