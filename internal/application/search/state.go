// Package search runs the submit, fetch and render cycle of the recipe finder.
//
// Page state is an immutable State value advanced by Reduce. A Store wraps
// one State per page session and serialises dispatches; the network fetch
// itself runs outside the Store, so overlapping submissions are allowed and
// whichever fetch completes last decides the Result Set.
package search

import (
	"bytes"
	"encoding/json"

	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/domain/recipe"
)

// Status is the view state of the results region
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

// NoticeKind separates success toasts from error toasts
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice texts shown to the user
const (
	SuccessTitle       = "Fetched Recipes:"
	ErrorTitle         = "Error"
	FetchFailedMessage = "Failed to fetch recipes. Please try again later."
)

// Notice is a transient toast
type Notice struct {
	ID    string     `json:"id"`
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	Body  string     `json:"body"`
}

// State is the complete page state. Treat it as a value: Reduce never
// modifies its input.
type State struct {
	Filters filter.Selection
	Results recipe.ResultSet
	Notices []Notice
	// FormErrors holds field messages from the last rejected submission
	FormErrors []filter.FieldError
	// Pending counts fetches that have started and not yet completed
	Pending int
	// Completed counts finished fetches, successful or not
	Completed int
}

// InitialState is the state of a freshly opened page
func InitialState() State {
	return State{Filters: filter.NewSelection()}
}

// Status is Loading while any fetch is outstanding
func (s State) Status() Status {
	if s.Pending > 0 {
		return StatusLoading
	}
	return StatusIdle
}

// IsLoading is a template convenience
func (s State) IsLoading() bool {
	return s.Status() == StatusLoading
}

// FormError returns the message recorded for field, if any
func (s State) FormError(field string) string {
	for _, fe := range s.FormErrors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Action is anything Reduce understands
type Action interface {
	actionName() string
}

// FilterChanged forwards a control event to the filter transition function
type FilterChanged struct {
	Event filter.Event
}

// SubmissionRejected records structural validation failures. No fetch is
// started.
type SubmissionRejected struct {
	Errors []filter.FieldError
}

// FetchStarted applies an accepted submission and enters Loading
type FetchStarted struct {
	Submission filter.Submission
}

// FetchSucceeded replaces the Result Set and queues a success notice
// carrying the raw response
type FetchSucceeded struct {
	NoticeID string
	Records  []recipe.Record
	Raw      []byte
}

// FetchFailed keeps the Result Set and queues the generic error notice
type FetchFailed struct {
	NoticeID string
}

// NoticesShown drops every queued notice once rendered
type NoticesShown struct{}

// NoticeDismissed drops one notice
type NoticeDismissed struct {
	ID string
}

func (FilterChanged) actionName() string      { return "filter_changed" }
func (SubmissionRejected) actionName() string { return "submission_rejected" }
func (FetchStarted) actionName() string       { return "fetch_started" }
func (FetchSucceeded) actionName() string     { return "fetch_succeeded" }
func (FetchFailed) actionName() string        { return "fetch_failed" }
func (NoticesShown) actionName() string       { return "notices_shown" }
func (NoticeDismissed) actionName() string    { return "notice_dismissed" }

// Reduce returns the state that follows s after a. Filter events that the
// transition function rejects leave the state unchanged.
func Reduce(s State, a Action) State {
	next := s
	switch act := a.(type) {
	case FilterChanged:
		sel, err := filter.Apply(s.Filters, act.Event)
		if err != nil {
			return s
		}
		next.Filters = sel

	case SubmissionRejected:
		next.FormErrors = append([]filter.FieldError(nil), act.Errors...)

	case FetchStarted:
		if sel, err := act.Submission.ApplyTo(s.Filters); err == nil {
			next.Filters = sel
		}
		next.FormErrors = nil
		next.Pending++

	case FetchSucceeded:
		next.Results = recipe.NewResultSet(act.Records...)
		next.Notices = appendNotice(s.Notices, Notice{
			ID:    act.NoticeID,
			Kind:  NoticeSuccess,
			Title: SuccessTitle,
			Body:  prettyJSON(act.Raw),
		})
		next = settle(next)

	case FetchFailed:
		next.Notices = appendNotice(s.Notices, Notice{
			ID:    act.NoticeID,
			Kind:  NoticeError,
			Title: ErrorTitle,
			Body:  FetchFailedMessage,
		})
		next = settle(next)

	case NoticesShown:
		next.Notices = nil

	case NoticeDismissed:
		kept := make([]Notice, 0, len(s.Notices))
		for _, n := range s.Notices {
			if n.ID != act.ID {
				kept = append(kept, n)
			}
		}
		next.Notices = kept
	}
	return next
}

func settle(s State) State {
	if s.Pending > 0 {
		s.Pending--
	}
	s.Completed++
	return s
}

func appendNotice(notices []Notice, n Notice) []Notice {
	out := make([]Notice, 0, len(notices)+1)
	out = append(out, notices...)
	return append(out, n)
}

func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
