package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/aluiziolira/go-books-insights/auth"
	"github.com/aluiziolira/go-books-insights/features"
	"github.com/aluiziolira/go-books-insights/insights"
	"github.com/aluiziolira/go-books-insights/query"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}
	form := loginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := s.validate.Struct(form); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	if err := s.creds.Check(form.Username, form.Password); err != nil {
		s.metrics.AuthFailure("bad_credentials")
		s.logger.Warn("login_failed", "username", form.Username, "client_ip", r.RemoteAddr)
		writeUnauthorized(w, "Incorrect username or password")
		return
	}

	token, err := s.tokens.Issue(form.Username)
	if err != nil {
		s.logger.Error("token_issue_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	skip, err := intQuery(r, "skip", 0)
	if err == nil && skip < 0 {
		err = &paramError{name: "skip", reason: "must be non-negative"}
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	limit, err := boundedLimit(r, s.cfg.DefaultListLimit, s.cfg.MaxListLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, query.List(t.Books, skip, limit))
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := query.Criteria{
		Title:    q.Get("title"),
		Category: q.Get("category"),
	}

	var err error
	if criteria.MinPrice, err = optionalFloat(r, "min_price"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if criteria.MaxPrice, err = optionalFloat(r, "max_price"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if criteria.MinRating, err = optionalInt(r, "min_rating"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, query.Search(t.Books, criteria))
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	limit, err := boundedLimit(r, s.cfg.DefaultTopRatedLimit, s.cfg.MaxTopRatedLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, query.TopRated(t.Books, limit))
}

func (s *Server) handlePriceRange(w http.ResponseWriter, r *http.Request) {
	lo, err := requiredFloat(r, "min")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	hi, err := requiredFloat(r, "max")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, query.PriceRange(t.Books, lo, hi))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid path parameter 'id': expected an integer")
		return
	}

	t, ok := s.table(w, r)
	if !ok {
		return
	}
	book, err := query.FindByID(t.Books, id)
	if errors.Is(err, query.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": query.Categories(t.Books)})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, insights.ComputeOverview(t.Books))
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, insights.ComputeCategoryStats(t.Books))
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, features.Matrix(t.Books))
}

func (s *Server) handleTrainingData(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, features.TrainingData(t.Books))
}

type predictionPayload struct {
	// A pointer separates a missing or null list (422) from an empty one (400).
	Predictions *[]features.Prediction `json:"predictions" validate:"required"`
}

type predictionResponse struct {
	Status  string           `json:"status"`
	Summary features.Summary `json:"summary"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	var payload predictionPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	summary, err := features.SummarizePredictions(*payload.Predictions)
	if errors.Is(err, features.ErrNoPredictions) {
		writeError(w, http.StatusBadRequest, "Predictions payload is empty.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not summarize predictions")
		return
	}

	s.logger.Info("predictions_accepted",
		"received", summary.Received,
		"models", strings.Join(summary.Models, ","),
		"subject", subject(r),
	)
	writeJSON(w, http.StatusOK, predictionResponse{Status: "accepted", Summary: summary})
}

func subject(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

// validationDetail names the first failing field in lower case, matching the
// form and JSON field names.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Field '%s' failed on '%s'", strings.ToLower(fe.Field()), fe.Tag())
	}
	return "Invalid request"
}
