package webserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/domain/recipe"
	"github.com/surpriseme/recipes/internal/infrastructure/http/middleware"
	apperrors "github.com/surpriseme/recipes/pkg/errors"
)

// SearchResponse is the body of a successful POST /api/search
type SearchResponse struct {
	Recipes []recipe.Record `json:"recipes"`
	Raw     json.RawMessage `json:"raw"`
}

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	state := session.Store.State()
	notices := session.Store.TakeNotices()

	s.render(w, http.StatusOK, "page", newPageView(s.config.App.Name, state, notices))
}

// handleSearch runs one submission for the page. htmx requests get the
// results region with out of band toasts and field errors; a plain form post
// is redirected back to the page, which drains the toasts.
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderFragmentError(w, apperrors.NewBadRequestError("Malformed form submission").WithCause(err))
		return
	}

	// A fetch outlives the request that started it: an abandoned search still
	// lands on the session and may replace a newer Result Set.
	fetchCtx := context.WithoutCancel(r.Context())
	if _, err := s.service.Submit(fetchCtx, session.Store, filter.ValidateForm(r.PostForm)); err != nil {
		// Failures are already on the store as field errors or a notice.
		s.logger.Debug("Search did not succeed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("code", string(apperrors.GetCode(err))),
		)
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Nobody is listening; leave the toasts queued for the next render.
	if r.Context().Err() != nil {
		return
	}

	// Render the latest state so a slower overlapping fetch that finished
	// first is not shown over the newest result.
	view := newPageView(s.config.App.Name, session.Store.State(), session.Store.TakeNotices())
	view.OOB = true
	s.render(w, http.StatusOK, "search-response", view)
}

func (s *WebServer) handleMealSelected(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	meal, err := filter.ParseMealType(r.PostFormValue("meal"))
	if err != nil {
		s.renderFragmentError(w, apperrors.NewBadRequestError(err.Error()).WithCause(err))
		return
	}

	state, err := s.service.Update(session.Store, filter.MealSelected{Meal: meal})
	if err != nil {
		s.renderFragmentError(w, err)
		return
	}

	s.render(w, http.StatusOK, "meal-selector", newPageView(s.config.App.Name, state, nil))
}

func (s *WebServer) handleAllergyToggled(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "items", func(tag string, checked bool) filter.Event {
		return filter.AllergyToggled{Tag: tag, Checked: checked}
	})
}

func (s *WebServer) handleDietToggled(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "diets", func(tag string, checked bool) filter.Event {
		return filter.DietToggled{Tag: tag, Checked: checked}
	})
}

// handleToggle reads form fields tag and checked. A checkbox posting itself
// sends no checked field; then the tag being present in the group field
// means checked.
func (s *WebServer) handleToggle(w http.ResponseWriter, r *http.Request, group string, event func(string, bool) filter.Event) {
	session := s.session(r)

	if err := r.ParseForm(); err != nil {
		s.renderFragmentError(w, apperrors.NewBadRequestError("Malformed form submission").WithCause(err))
		return
	}

	tag := strings.TrimSpace(r.PostForm.Get("tag"))
	if tag == "" {
		s.renderFragmentError(w, apperrors.NewBadRequestError("tag is required"))
		return
	}

	checked, err := checkedValue(r.PostForm, group, tag)
	if err != nil {
		s.renderFragmentError(w, apperrors.NewBadRequestError("checked must be a boolean").WithCause(err))
		return
	}

	if _, err := s.service.Update(session.Store, event(tag, checked)); err != nil {
		s.renderFragmentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *WebServer) handleCookTimeChanged(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	if err := r.ParseForm(); err != nil {
		s.renderFragmentError(w, apperrors.NewBadRequestError("Malformed form submission").WithCause(err))
		return
	}

	if _, err := s.service.Update(session.Store, filter.CookTimeChanged{Value: r.PostForm.Get("cook_time")}); err != nil {
		s.renderFragmentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPISearch is the JSON rendition of a submission. Each call runs on
// its own state, independent of any page session.
func (s *WebServer) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, requestID, apperrors.NewBadRequestError("Request body could not be read").WithCause(err))
		return
	}

	store := search.NewStore(search.InitialState())
	state, err := s.service.Submit(r.Context(), store, filter.ValidateJSON(body))
	if err != nil {
		if !apperrors.Is(err, apperrors.CodeValidationFailed) {
			// Transport and decode failures are not told apart for callers.
			err = apperrors.NewAppError(apperrors.CodeExternalServiceError, search.FetchFailedMessage, "").WithCause(err)
		}
		s.writeError(w, requestID, err)
		return
	}

	response := SearchResponse{Recipes: state.Results.Records(), Raw: json.RawMessage("null")}
	for _, n := range state.Notices {
		if n.Kind == search.NoticeSuccess && json.Valid([]byte(n.Body)) {
			response.Raw = json.RawMessage(n.Body)
		}
	}
	if response.Recipes == nil {
		response.Recipes = []recipe.Record{}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *WebServer) session(r *http.Request) *Session {
	session, ok := SessionFrom(r.Context())
	if !ok {
		panic("webserver: session middleware not installed")
	}
	return session
}

func (s *WebServer) render(w http.ResponseWriter, status int, name string, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf strings.Builder
	if err := s.renderer.Render(&buf, name, view); err != nil {
		s.logger.Error("Failed to execute template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

func (s *WebServer) renderFragmentError(w http.ResponseWriter, err error) {
	appErr := apperrors.Wrap(err, "Request failed")
	s.logger.Debug("Rejected htmx request", zap.Error(err))
	s.render(w, appErr.StatusCode(), "error-fragment", pageView{Message: appErr.Message})
}

func (s *WebServer) writeError(w http.ResponseWriter, requestID string, err error) {
	appErr := apperrors.Wrap(err, "Request failed")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		s.logger.Warn("Search API request failed",
			zap.String("request_id", requestID),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	writeJSON(w, appErr.StatusCode(), apperrors.ToErrorResponse(appErr, requestID))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func checkedValue(form map[string][]string, group, tag string) (bool, error) {
	if raw, ok := form["checked"]; ok && len(raw) > 0 {
		switch strings.ToLower(raw[0]) {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
		return strconv.ParseBool(raw[0])
	}
	for _, v := range form[group] {
		if v == tag {
			return true, nil
		}
	}
	return false, nil
}
