package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/pavelanni/testprep/internal/model"
)

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

// watchedVideos returns the IDs of lectures the user has marked watched.
func (h *Handler) watchedVideos(userID int64) ([]int64, error) {
	var ids []int64
	_, err := h.loadDoc(userID, model.KeyWatchedVideos, &ids)
	return ids, err
}

func (h *Handler) handleMaterials(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	videos, err := h.store.ListVideoLectures()
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := h.store.ListStudyNotes()
	if err != nil {
		writeError(w, r, err)
		return
	}
	watched, err := h.watchedVideos(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := model.Materials{Videos: []model.VideoLecture{}, Notes: []model.StudyNote{}}
	for _, v := range videos {
		v.Completed = slices.Contains(watched, v.ID)
		m.Videos = append(m.Videos, v)
	}
	m.Notes = append(m.Notes, notes...)
	writeJSON(w, http.StatusOK, m)
}

// handleWatchVideo counts a view and marks the lecture watched for the caller.
func (h *Handler) handleWatchVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "videoID")
	if !ok {
		return
	}
	user := model.UserFromContext(r.Context())

	if err := h.store.RecordVideoView(id); err != nil {
		writeError(w, r, err)
		return
	}
	watched, err := h.watchedVideos(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !slices.Contains(watched, id) {
		if err := h.saveDoc(user.ID, model.KeyWatchedVideos, append(watched, id)); err != nil {
			writeError(w, r, err)
			return
		}
		slog.Debug("video watched", "user_id", user.ID, "video_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDownloadNote(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "noteID")
	if !ok {
		return
	}
	note, err := h.store.RecordNoteDownload(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}
