package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/services"
)

const (
	maxRosterRequestBody = 8 * 1024
	maxPhotoUploadSize   = 16 << 20

	photoFormField = "file"
)

// AdminRosterHandlers serves school, class, student and photo management.
type AdminRosterHandlers struct {
	roster services.RosterService
}

// NewAdminRosterHandlers constructs the admin roster handlers.
func NewAdminRosterHandlers(roster services.RosterService) *AdminRosterHandlers {
	return &AdminRosterHandlers{roster: roster}
}

// Routes registers roster endpoints under the admin group.
func (h *AdminRosterHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/schools", h.listSchools)
	r.Post("/schools", h.createSchool)
	r.Get("/schools/{schoolID}", h.getSchool)
	r.Put("/schools/{schoolID}", h.updateSchool)
	r.Delete("/schools/{schoolID}", h.deleteSchool)

	r.Get("/schools/{schoolID}/classes", h.listClasses)
	r.Post("/schools/{schoolID}/classes", h.createClass)
	r.Put("/classes/{classID}", h.updateClass)
	r.Delete("/classes/{classID}", h.deleteClass)

	r.Get("/classes/{classID}/students", h.listStudents)
	r.Post("/classes/{classID}/students", h.createStudent)
	r.Get("/students/{studentID}", h.getStudent)
	r.Put("/students/{studentID}", h.updateStudent)
	r.Delete("/students/{studentID}", h.deleteStudent)
	r.Post("/students/{studentID}/access-code", h.regenerateAccessCode)

	r.Get("/students/{studentID}/photos", h.listStudentPhotos)
	r.Post("/students/{studentID}/photos", h.uploadPhoto)
	r.Delete("/photos/{photoID}", h.deletePhoto)
}

type namedEntityRequest struct {
	Name string `json:"name"`
}

func (h *AdminRosterHandlers) decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxRosterRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return "", false
	}
	var req namedEntityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "name is required", http.StatusBadRequest))
		return "", false
	}
	return name, true
}

func (h *AdminRosterHandlers) guard(w http.ResponseWriter, r *http.Request) bool {
	if h.roster != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("roster_unavailable", "roster service unavailable", http.StatusServiceUnavailable))
	return false
}

type schoolPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func schoolToPayload(s domain.School) schoolPayload {
	return schoolPayload{ID: s.ID, Name: s.Name, CreatedAt: timestampString(s.CreatedAt), UpdatedAt: timestampString(s.UpdatedAt)}
}

type classPayload struct {
	ID       string `json:"id"`
	SchoolID string `json:"schoolId"`
	Name     string `json:"name"`
}

func classToPayload(c domain.Class) classPayload {
	return classPayload{ID: c.ID, SchoolID: c.SchoolID, Name: c.Name}
}

func (h *AdminRosterHandlers) listSchools(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	schools, err := h.roster.ListSchools(ctx)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	payload := make([]schoolPayload, 0, len(schools))
	for _, school := range schools {
		payload = append(payload, schoolToPayload(school))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"schools": payload})
}

func (h *AdminRosterHandlers) createSchool(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	school, err := h.roster.CreateSchool(ctx, name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, schoolToPayload(school))
}

func (h *AdminRosterHandlers) getSchool(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	school, err := h.roster.GetSchool(ctx, chi.URLParam(r, "schoolID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schoolToPayload(school))
}

func (h *AdminRosterHandlers) updateSchool(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	school, err := h.roster.UpdateSchool(ctx, chi.URLParam(r, "schoolID"), name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schoolToPayload(school))
}

func (h *AdminRosterHandlers) deleteSchool(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.roster.DeleteSchool(ctx, chi.URLParam(r, "schoolID")); err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminRosterHandlers) listClasses(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	classes, err := h.roster.ListClasses(ctx, chi.URLParam(r, "schoolID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	payload := make([]classPayload, 0, len(classes))
	for _, class := range classes {
		payload = append(payload, classToPayload(class))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"classes": payload})
}

func (h *AdminRosterHandlers) createClass(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	class, err := h.roster.CreateClass(ctx, chi.URLParam(r, "schoolID"), name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, classToPayload(class))
}

func (h *AdminRosterHandlers) updateClass(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	class, err := h.roster.UpdateClass(ctx, chi.URLParam(r, "classID"), name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, classToPayload(class))
}

func (h *AdminRosterHandlers) deleteClass(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.roster.DeleteClass(ctx, chi.URLParam(r, "classID")); err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminRosterHandlers) listStudents(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	students, err := h.roster.ListStudents(ctx, chi.URLParam(r, "classID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	payload := make([]adminStudentPayload, 0, len(students))
	for _, student := range students {
		payload = append(payload, studentToAdminPayload(student))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"students": payload})
}

func (h *AdminRosterHandlers) createStudent(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	student, err := h.roster.CreateStudent(ctx, chi.URLParam(r, "classID"), name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, studentToAdminPayload(student))
}

func (h *AdminRosterHandlers) getStudent(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	student, err := h.roster.GetStudent(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, studentToAdminPayload(student))
}

func (h *AdminRosterHandlers) updateStudent(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	name, ok := h.decodeName(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	student, err := h.roster.UpdateStudent(ctx, chi.URLParam(r, "studentID"), name)
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, studentToAdminPayload(student))
}

func (h *AdminRosterHandlers) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.roster.DeleteStudent(ctx, chi.URLParam(r, "studentID")); err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminRosterHandlers) regenerateAccessCode(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	student, err := h.roster.RegenerateAccessCode(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, studentToAdminPayload(student))
}

func (h *AdminRosterHandlers) listStudentPhotos(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	photos, err := h.roster.ListStudentPhotos(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	payload := make([]photoPayload, 0, len(photos))
	for _, photo := range photos {
		payload = append(payload, photoToPayload(photo))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"photos": payload})
}

func (h *AdminRosterHandlers) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxPhotoUploadSize); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request must be multipart form data", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	photo, err := h.roster.UploadPhoto(ctx, services.UploadPhotoCommand{
		StudentID:   chi.URLParam(r, "studentID"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, photoToPayload(photo))
}

func (h *AdminRosterHandlers) deletePhoto(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.roster.DeletePhoto(ctx, chi.URLParam(r, "photoID")); err != nil {
		writeRosterError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRosterError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrRosterInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrRosterNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "roster entry not found", http.StatusNotFound))
	case errors.Is(err, services.ErrRosterUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("roster_unavailable", "roster service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("roster_error", "failed to process roster request", http.StatusInternalServerError))
	}
}
