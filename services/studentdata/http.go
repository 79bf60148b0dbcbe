package studentdata

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"acadassist-backend/lib/catalog"
	"acadassist-backend/lib/scrapers/yedion"
)

type apiError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, yedion.ErrAuthenticationFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, ErrUnknownDepartment), errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrScheduleLimit):
		status = http.StatusBadRequest
	case errors.Is(err, yedion.ErrReportUnreachable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, apiError{Status: "error", Message: err.Error()})
}

func readJSON(r *http.Request, into any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(into)
}

type userResponse struct {
	Status  string  `json:"status"`
	User    Profile `json:"user"`
	Message string  `json:"message"`
}

// RegisterRoutes attaches the service's HTTP surface to the mux.
func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /auth/guest", s.handleGuest)
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("PUT /courses", s.handleSetCourses)
	mux.HandleFunc("POST /schedule", s.handleCreateSchedule)
	mux.HandleFunc("GET /schedule/{id}", s.handleGetSchedule)
	mux.HandleFunc("DELETE /schedule/{id}", s.handleDeleteSchedule)
	mux.HandleFunc("GET /schedule/student/{studentId}", s.handleStudentSchedules)
}

func (s Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	err := readJSON(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "malformed request body"})
		return
	}

	profile, err := s.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		Status:  "success",
		User:    profile,
		Message: "Welcome back, " + profile.Name + "!",
	})
}

func (s Service) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	err := readJSON(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "malformed request body"})
		return
	}

	profile, err := s.Signup(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		Status:  "success",
		User:    profile,
		Message: "Welcome, " + profile.Name + "!",
	})
}

func (s Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	err := readJSON(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "malformed request body"})
		return
	}

	profile, err := s.Refresh(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		Status:  "success",
		User:    profile,
		Message: "Your transcript is up to date.",
	})
}

func (s Service) handleGuest(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Guest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		Status:  "success",
		User:    profile,
		Message: "Logged in as guest. Some features are limited.",
	})
}

func (s Service) handleCourses(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	includeGeneral := true
	if v := r.URL.Query().Get("generalcourses"); v != "" {
		includeGeneral, _ = strconv.ParseBool(v)
	}

	courses, err := s.DepartmentCourses(r.Context(), department, includeGeneral)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s Service) handleSetCourses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Department string           `json:"department"`
		Courses    []catalog.Course `json:"courses"`
	}
	err := readJSON(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "malformed request body"})
		return
	}

	err = s.SetDepartmentCourses(r.Context(), req.Department, req.Courses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Catalog updated successfully"})
}

func (s Service) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID int64           `json:"studentId"`
		Name      string          `json:"name"`
		Data      json.RawMessage `json:"data"`
	}
	err := readJSON(r, &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "malformed request body"})
		return
	}

	schedule, err := s.CreateSchedule(r.Context(), req.StudentID, req.Name, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s Service) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.Schedule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s Service) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	err := s.DeleteSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Schedule deleted successfully"})
}

func (s Service) handleStudentSchedules(w http.ResponseWriter, r *http.Request) {
	studentId, err := strconv.ParseInt(r.PathValue("studentId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Status: "error", Message: "invalid student id"})
		return
	}

	schedules, err := s.StudentSchedules(r.Context(), studentId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}
