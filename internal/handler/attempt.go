package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/attempts"
	appI18n "github.com/pavelanni/testprep/internal/i18n"
	"github.com/pavelanni/testprep/internal/model"
)

// itemView is an item as shown while the attempt is open: no correct answer.
type itemView struct {
	Index    int      `json:"index"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Selected *int     `json:"selected,omitempty"`
}

type attemptView struct {
	ID        string           `json:"id"`
	TestID    int64            `json:"test_id"`
	StartedAt time.Time        `json:"started_at"`
	State     assessment.State `json:"state"`
	Item      itemView         `json:"item"`
	Label     string           `json:"label"`
}

type reportView struct {
	AttemptID   string    `json:"attempt_id"`
	SubmittedAt time.Time `json:"submitted_at,omitzero"`
	assessment.Report
	Summary string `json:"summary"`
}

func (h *Handler) newAttemptView(r *http.Request, e *attempts.Entry) attemptView {
	state := e.Attempt.Snapshot()
	idx, item := e.Attempt.Current()
	v := attemptView{
		ID:        e.ID,
		TestID:    e.TestID,
		StartedAt: e.StartedAt,
		State:     state,
		Item: itemView{
			Index:   idx,
			Prompt:  item.Prompt,
			Options: item.Options,
		},
		Label: appI18n.Td(r.Context(), "QuestionNofM", map[string]any{"N": idx + 1, "Total": state.Total}),
	}
	if opt, ok := state.Answers[idx]; ok {
		v.Item.Selected = &opt
	}
	return v
}

func (h *Handler) newReportView(r *http.Request, id string, submittedAt time.Time, rep assessment.Report) reportView {
	summary := appI18n.Td(r.Context(), "ScoreLine", map[string]any{
		"Score":      strconv.FormatFloat(rep.ScorePercent, 'f', -1, 64),
		"Correct":    rep.Counts.Correct,
		"Incorrect":  rep.Counts.Incorrect,
		"Unanswered": rep.Counts.Unanswered,
	})
	return reportView{AttemptID: id, SubmittedAt: submittedAt, Report: rep, Summary: summary}
}

// liveAttempt returns the caller's registered attempt named in the URL. An
// attempt that was already archived reports ErrAttemptAlreadySubmitted.
func (h *Handler) liveAttempt(r *http.Request) (*attempts.Entry, error) {
	user := model.UserFromContext(r.Context())
	id := chi.URLParam(r, "attemptID")
	e, err := h.registry.Get(id, user.ID)
	if !errors.Is(err, attempts.ErrNotFound) {
		return e, err
	}
	rec, err := h.store.GetAttemptRecord(id)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.UserID == user.ID {
		return nil, assessment.ErrAttemptAlreadySubmitted
	}
	return nil, attempts.ErrNotFound
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if r.Header.Get("Authorization") != "" {
		user, _, err := h.authenticate(r)
		if errors.Is(err, errUnauthorized) {
			httpError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID = user.ID
	}

	tests, err := h.store.ListTestsForUser(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tests == nil {
		tests = []model.TestInfo{}
	}
	writeJSON(w, http.StatusOK, tests)
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	testID, ok := intParam(w, r, "testID")
	if !ok {
		return
	}
	user := model.UserFromContext(r.Context())

	test, err := h.store.GetTest(testID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if test.Status == model.TestUpcoming {
		writeError(w, r, errTestUpcoming)
		return
	}
	bank, err := h.store.LoadBank(test.BankID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, created, err := h.registry.Start(user.ID, testID, bank)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !created {
		slog.Debug("resuming open attempt", "attempt_id", e.ID, "user_id", user.ID, "test_id", testID)
		writeJSON(w, http.StatusOK, h.newAttemptView(r, e))
		return
	}
	slog.Info("attempt started", "attempt_id", e.ID, "user_id", user.ID, "test_id", testID)
	writeJSON(w, http.StatusCreated, h.newAttemptView(r, e))
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	e, err := h.liveAttempt(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAttemptView(r, e))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item   *int `json:"item"`
		Option *int `json:"option"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Item == nil || req.Option == nil {
		httpError(w, "item and option are required", http.StatusBadRequest)
		return
	}

	e, err := h.liveAttempt(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := e.Attempt.SelectAnswer(*req.Item, *req.Option); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAttemptView(r, e))
}

func (h *Handler) handleClearAnswer(w http.ResponseWriter, r *http.Request) {
	item, ok := intParam(w, r, "item")
	if !ok {
		return
	}
	e, err := h.liveAttempt(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := e.Attempt.Clear(int(item)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAttemptView(r, e))
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
		Index     *int   `json:"index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.liveAttempt(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Index != nil {
		err = e.Attempt.GoTo(*req.Index)
	} else {
		var d assessment.Direction
		d, err = assessment.ParseDirection(req.Direction)
		if err == nil {
			_, err = e.Attempt.Navigate(d)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAttemptView(r, e))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	e, err := h.liveAttempt(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var rec model.AttemptRecord
	rep, err := e.Submit(func(rep assessment.Report) error {
		rec = model.AttemptRecord{
			ID:          e.ID,
			UserID:      e.UserID,
			TestID:      e.TestID,
			StartedAt:   e.StartedAt,
			SubmittedAt: time.Now(),
			Answers:     e.Attempt.Snapshot().Answers,
			Report:      rep,
		}
		return h.store.ArchiveAttempt(rec)
	})
	if err != nil {
		// A failed archive leaves the attempt registered and submitted, and
		// the next submit retries it.
		writeError(w, r, err)
		return
	}
	h.registry.Finish(e.ID)

	writeJSON(w, http.StatusOK, h.newReportView(r, e.ID, rec.SubmittedAt, rep))
}

// reportFor returns the report of the caller's attempt id, live or archived.
func (h *Handler) reportFor(r *http.Request, id string) (assessment.Report, time.Time, error) {
	user := model.UserFromContext(r.Context())
	e, err := h.registry.Get(id, user.ID)
	if err == nil {
		rep, err := e.Attempt.Report()
		return rep, time.Time{}, err
	}
	if !errors.Is(err, attempts.ErrNotFound) {
		return assessment.Report{}, time.Time{}, err
	}

	rec, err := h.store.GetAttemptRecord(id)
	if err != nil {
		return assessment.Report{}, time.Time{}, err
	}
	if rec == nil || rec.UserID != user.ID {
		return assessment.Report{}, time.Time{}, attempts.ErrNotFound
	}
	return rec.Report, rec.SubmittedAt, nil
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	rep, submittedAt, err := h.reportFor(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newReportView(r, id, submittedAt, rep))
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	if h.explainer == nil {
		httpError(w, "explanations are not available", http.StatusServiceUnavailable)
		return
	}
	item, ok := intParam(w, r, "item")
	if !ok {
		return
	}

	rep, _, err := h.reportFor(r, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item < 0 || int(item) >= len(rep.Items) {
		writeError(w, r, assessment.ErrIndexOutOfRange)
		return
	}
	res := rep.Items[item]

	text, err := h.explainer.Explain(r.Context(), res.Item(), res.Chosen)
	if err != nil {
		slog.Error("explanation failed", "error", err)
		httpError(w, "explanation failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":       res.Index,
		"outcome":     res.Outcome,
		"explanation": text,
	})
}

type activeAttempt struct {
	ID        string    `json:"id"`
	TestID    int64     `json:"test_id"`
	StartedAt time.Time `json:"started_at"`
	Answered  int       `json:"answered"`
	Total     int       `json:"total"`
	Submitted bool      `json:"submitted"`
}

func (h *Handler) handleMyAttempts(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	summaries, err := h.store.ListAttemptsForUser(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []model.AttemptSummary{}
	}
	var total float64
	for _, s := range summaries {
		total += s.ScorePercent
	}
	var average float64
	if len(summaries) > 0 {
		average = total / float64(len(summaries))
	}

	subjects, err := h.store.SubjectProgressForUser(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if subjects == nil {
		subjects = []model.SubjectProgress{}
	}
	testsCompleted, err := h.store.CompletedTestCount(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	testsTotal, err := h.store.TestCount()
	if err != nil {
		writeError(w, r, err)
		return
	}

	active := []activeAttempt{}
	for _, e := range h.registry.ActiveForUser(user.ID) {
		st := e.Attempt.Snapshot()
		active = append(active, activeAttempt{
			ID: e.ID, TestID: e.TestID, StartedAt: e.StartedAt,
			Answered: st.Answered, Total: st.Total,
			Submitted: st.Status == assessment.StatusSubmitted,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"attempts":         summaries,
		"average_score":    average,
		"completed":        len(summaries),
		"tests_completed":  testsCompleted,
		"tests_total":      testsTotal,
		"subject_progress": subjects,
		"active":           active,
	})
}
