package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/grading"
	"github.com/jonathan/cgpa-tracker/internal/observability"
	"github.com/jonathan/cgpa-tracker/internal/server/middleware"
	"github.com/jonathan/cgpa-tracker/internal/types"
)

// display carries two-decimal renderings of the stored figures.
type display struct {
	SemesterGPA string `json:"semester_gpa,omitempty"`
	OverallCGPA string `json:"overall_cgpa"`
}

type recordResponse struct {
	*types.Record
	Display display `json:"display"`
}

type semesterResponse struct {
	*types.SemesterResult
	Display display `json:"display"`
}

type deleteResponse struct {
	*types.DeleteResult
	Display display `json:"display"`
}

type semesterView struct {
	*types.Semester
	Display struct {
		GPA string `json:"gpa"`
	} `json:"display"`
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromRequest(w, r)
	if !ok {
		return
	}

	record, err := s.records.GetRecord(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, recordResponse{
		Record:  record,
		Display: display{OverallCGPA: observability.FormatGPA(record.OverallCGPA)},
	})
}

func (s *Server) handleUpsertSemester(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromRequest(w, r)
	if !ok {
		return
	}

	var req types.UpsertSemesterRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.records.UpsertSemester(r.Context(), userID, req.SemesterNumber, req.Subjects)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSemesterResponse(result))
}

func (s *Server) handleGetSemester(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromRequest(w, r)
	if !ok {
		return
	}
	number, ok := s.semesterNumber(w, r)
	if !ok {
		return
	}

	sem, err := s.records.GetSemester(r.Context(), userID, number)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	view := semesterView{Semester: sem}
	view.Display.GPA = observability.FormatGPA(sem.GPA)
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSemester(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromRequest(w, r)
	if !ok {
		return
	}
	number, ok := s.semesterNumber(w, r)
	if !ok {
		return
	}

	var req types.UpdateSemesterRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.records.UpdateSemester(r.Context(), userID, number, req.Subjects)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSemesterResponse(result))
}

func (s *Server) handleDeleteSemester(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userFromRequest(w, r)
	if !ok {
		return
	}
	number, ok := s.semesterNumber(w, r)
	if !ok {
		return
	}

	result, err := s.records.DeleteSemester(r.Context(), userID, number)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, deleteResponse{
		DeleteResult: result,
		Display:      display{OverallCGPA: observability.FormatGPA(result.OverallCGPA)},
	})
}

func newSemesterResponse(result *types.SemesterResult) semesterResponse {
	return semesterResponse{
		SemesterResult: result,
		Display: display{
			SemesterGPA: observability.FormatGPA(result.SemesterGPA),
			OverallCGPA: observability.FormatGPA(result.OverallCGPA),
		},
	}
}

func (s *Server) userFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// semesterNumber parses the {number} path value. Anything that is not a
// positive integer is reported with the calculator's own reason.
func (s *Server) semesterNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		s.errorResponse(w, http.StatusBadRequest, grading.ReasonInvalidSemesterNumber)
		return 0, false
	}
	return number, true
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
