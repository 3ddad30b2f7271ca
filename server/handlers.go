package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ShelfFM/config"
	"ShelfFM/core/importer"
	"ShelfFM/core/player"
	"ShelfFM/core/view"
	"ShelfFM/logger"
	"ShelfFM/model"
	"ShelfFM/repository"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	trackRepo  repository.TrackRepository
	engine     *player.Engine
	viewEngine *view.Engine
	importer   *importer.Importer
	hub        *EventHub
	cfg        *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	engine *player.Engine,
	viewEngine *view.Engine,
	imp *importer.Importer,
	hub *EventHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:  trackRepo,
		engine:     engine,
		viewEngine: viewEngine,
		importer:   imp,
		hub:        hub,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// viewInputs reads the view derivation inputs off the query string.
func viewInputs(r *http.Request) view.Inputs {
	q := r.URL.Query()
	return view.Inputs{
		Tab:           view.Tab(q.Get("tab")),
		Search:        q.Get("search"),
		FilterBy:      view.FilterField(q.Get("filterBy")),
		SelectedAlbum: q.Get("album"),
		SortBy:        view.SortField(q.Get("sortBy")),
		SortDesc:      q.Get("sortDir") == "desc",
	}
}

type trackView struct {
	model.TrackSummary
	DurationLabel string `json:"durationLabel"`
}

// GetTracksHandler returns the visible track list for the given view inputs.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks := h.viewEngine.Derive(h.trackRepo.ListAll(), viewInputs(r))

	out := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackView{
			TrackSummary:  t,
			DurationLabel: view.FormatDuration(t.Duration),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetAlbumsHandler returns the derived album groups.
func (h *APIHandler) GetAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.viewEngine.Albums(h.trackRepo.ListAll()))
}

// GetArtHandler serves a track's cover art.
func (h *APIHandler) GetArtHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	art, err := h.trackRepo.GetArt(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load art", http.StatusInternalServerError)
		return
	}
	if art == nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(art)
}

// UploadTracksHandler imports one or more uploaded audio files.
func (h *APIHandler) UploadTracksHandler(w http.ResponseWriter, r *http.Request) {
	const maxImportSize = 512 << 20 // whole batch
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	session := r.URL.Query().Get("session") == "true"
	folder := r.FormValue("folder")

	var files []importer.File
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open upload %s", header.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read upload %s", header.Filename), http.StatusBadRequest)
			return
		}
		files = append(files, importer.File{
			Data:     data,
			Filename: header.Filename,
			Folder:   folder,
			Session:  session,
		})
	}

	if len(files) == 0 {
		http.Error(w, "No files provided", http.StatusBadRequest)
		return
	}

	report := h.importer.ImportFiles(r.Context(), files)
	h.viewEngine.Invalidate()
	h.engine.SetStatus(fmt.Sprintf("Imported %d tracks", report.Imported+report.Merged))
	writeJSON(w, http.StatusOK, report)
}

// ImportPathHandler imports a file or folder already on the daemon's disk.
func (h *APIHandler) ImportPathHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path    string `json:"path"`
		Session bool   `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.importer.ImportPath(r.Context(), req.Path, req.Session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.viewEngine.Invalidate()
	writeJSON(w, http.StatusOK, report)
}

// FavoriteHandler flips a track's favorite bit.
func (h *APIHandler) FavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.engine.SetFavorite(r.Context(), id, req.Favorite)
	if err != nil {
		http.Error(w, "Failed to update favorite", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	h.viewEngine.Invalidate()
	writeJSON(w, http.StatusOK, summary)
}

// DeleteTrackHandler deletes a track. The confirmation dialog is the
// client's responsibility; by the time this is called the user has agreed.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.Delete(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete track", http.StatusInternalServerError)
		return
	}

	h.viewEngine.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// GetDeletedHandler lists the deleted entries.
func (h *APIHandler) GetDeletedHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.trackRepo.DeletedEntries(r.Context())
	if err != nil {
		http.Error(w, "Failed to list deleted entries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RestoreHandler lifts the import suppression for a source key.
func (h *APIHandler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceKey string `json:"sourceKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceKey == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.trackRepo.Restore(r.Context(), req.SourceKey); err != nil {
		http.Error(w, "Failed to restore", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearLibraryHandler wipes the track store and stops playback.
func (h *APIHandler) ClearLibraryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearLibrary(r.Context()); err != nil {
		http.Error(w, "Failed to clear library", http.StatusInternalServerError)
		return
	}
	h.viewEngine.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- player controls ---

// PlayerStatusHandler returns the engine snapshot.
func (h *APIHandler) PlayerStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// PlayHandler starts playback of a track, snapshotting the caller's current
// view as the queue.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	track := h.trackRepo.Get(req.ID)
	if track == nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	visible := h.viewEngine.Derive(h.trackRepo.ListAll(), viewInputs(r))
	h.engine.Play(r.Context(), *track, visible)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// ToggleHandler flips play/pause; with nothing current it plays the first
// visible track.
func (h *APIHandler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	visible := h.viewEngine.Derive(h.trackRepo.ListAll(), viewInputs(r))
	h.engine.Toggle(r.Context(), visible)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// NextHandler advances the queue.
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.Next(r.Context())
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// PrevHandler steps the queue backwards.
func (h *APIHandler) PrevHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.Prev(r.Context())
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// SeekHandler moves the playhead.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Also accept ?position= for simple clients.
		pos, perr := strconv.ParseFloat(r.URL.Query().Get("position"), 64)
		if perr != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Position = pos
	}

	h.engine.Seek(req.Position)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// ShuffleHandler switches shuffle mode.
func (h *APIHandler) ShuffleHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.engine.SetShuffle(req.On)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
