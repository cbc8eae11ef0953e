package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"careerplan/generator"
	"careerplan/locale"
	"careerplan/store"
)

type surveyReq struct {
	Answers generator.Answers `json:"answers"`
}

// surveyView is the wire form of a survey. aiPlan holds the plan markdown;
// title and digest are derived from it.
type surveyView struct {
	ID        string            `json:"id"`
	Answers   generator.Answers `json:"answers"`
	AIPlan    string            `json:"aiPlan"`
	Title     string            `json:"title,omitempty"`
	Digest    string            `json:"digest,omitempty"`
	History   []generator.Turn  `json:"history"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func viewOf(s *store.Survey) surveyView {
	history := s.History
	if history == nil {
		history = []generator.Turn{}
	}
	return surveyView{
		ID:        s.ID,
		Answers:   s.Answers,
		AIPlan:    s.Plan.Markdown,
		Title:     s.Plan.Title,
		Digest:    s.Plan.Digest,
		History:   history,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type surveyResp struct {
	AIPlan string     `json:"aiPlan"`
	Survey surveyView `json:"survey"`
}

func respOf(s *store.Survey) surveyResp {
	return surveyResp{AIPlan: s.Plan.Markdown, Survey: viewOf(s)}
}

type reviseReq struct {
	Comment string `json:"comment"`
}

func validateAnswers(a *generator.Answers) error {
	a.Goal = strings.TrimSpace(a.Goal)
	if a.Goal == "" {
		return errors.New("answers.goal is required")
	}
	a.Language = locale.Normalize(a.Language)
	return nil
}

func (s *Server) handleSurveyCreate(w http.ResponseWriter, r *http.Request) {
	var req surveyReq
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := validateAnswers(&req.Answers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := s.newID()
	sess := generator.NewSession(id, req.Answers, s.genAgent)
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	plan, err := sess.Propose(ctx)
	if err != nil {
		log.Warningf("generate plan for %s: %s", id, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	now := time.Now().UTC()
	survey := &store.Survey{
		ID:        id,
		Answers:   sess.Answers,
		Plan:      plan,
		History:   sess.History,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(r.Context(), survey); err != nil {
		writeStoreError(w, err)
		return
	}
	log.Infof("created survey %s (%s)", id, plan.Title)
	writeJSON(w, http.StatusCreated, respOf(survey))
}

func (s *Server) handleSurveyList(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	views := make([]surveyView, len(surveys))
	for i, sv := range surveys {
		views[i] = viewOf(sv)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSurveyGet(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(survey))
}

// handleSurveyUpdate replaces the answers and writes a fresh plan for them.
func (s *Server) handleSurveyUpdate(w http.ResponseWriter, r *http.Request) {
	var req surveyReq
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := validateAnswers(&req.Answers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	unlock := s.locks.lock(id)
	defer unlock()

	survey, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sess := generator.Resume(id, req.Answers, generator.Plan{}, survey.History, s.genAgent)
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	if _, err := sess.Propose(ctx); err != nil {
		log.Warningf("regenerate plan for %s: %s", id, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.save(w, r, survey, sess)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req reviseReq
	if !decodeJSON(w, r, &req, true) {
		return
	}

	id := r.PathValue("id")
	unlock := s.locks.lock(id)
	defer unlock()

	survey, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sess := generator.Resume(id, survey.Answers, survey.Plan, survey.History, s.genAgent)
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	if _, err := sess.Revise(ctx, strings.TrimSpace(req.Comment)); err != nil {
		log.Warningf("revise plan for %s: %s", id, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.save(w, r, survey, sess)
}

// save copies the session's result into survey and persists it.
func (s *Server) save(w http.ResponseWriter, r *http.Request, survey *store.Survey, sess *generator.Session) {
	survey.Answers = sess.Answers
	survey.Plan = sess.Plan
	survey.History = sess.History
	survey.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(r.Context(), survey); err != nil {
		writeStoreError(w, err)
		return
	}
	log.Infof("updated survey %s (%d turns)", survey.ID, len(survey.History))
	writeJSON(w, http.StatusOK, respOf(survey))
}

func (s *Server) handleSurveyDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	unlock := s.locks.lock(id)
	defer unlock()
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Survey deleted"})
}
