package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"careerplan/markdown"
	"careerplan/publisher"
)

// blockView is a parsed block with its inline spans resolved. Ordered is
// set for lists only.
type blockView struct {
	Kind      markdown.BlockKind `json:"kind"`
	Text      string             `json:"text,omitempty"`
	Level     int                `json:"level,omitempty"`
	Ordered   *bool              `json:"ordered,omitempty"`
	Items     []string           `json:"items,omitempty"`
	Spans     []markdown.Span    `json:"spans,omitempty"`
	ItemSpans [][]markdown.Span  `json:"itemSpans,omitempty"`
}

func blockTree(md string) []blockView {
	blocks := markdown.Parse(md)
	views := make([]blockView, len(blocks))
	for i, b := range blocks {
		v := blockView{Kind: b.Kind, Text: b.Text, Level: b.Level, Items: b.Items}
		switch b.Kind {
		case markdown.List:
			ordered := b.Ordered
			v.Ordered = &ordered
			v.ItemSpans = make([][]markdown.Span, len(b.Items))
			for j, item := range b.Items {
				v.ItemSpans[j] = markdown.Format(item)
			}
		case markdown.CodeBlock:
		default:
			v.Spans = markdown.Format(b.Text)
		}
		views[i] = v
	}
	return views
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"language": survey.Answers.Language,
		"blocks":   blockTree(survey.Plan.Markdown),
	})
}

type renderReq struct {
	Markdown string `json:"markdown"`
	Language string `json:"language"`
}

type renderResp struct {
	Blocks []blockView `json:"blocks"`
	HTML   string      `json:"html"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderReq
	if !decodeJSON(w, r, &req, false) {
		return
	}
	body, err := s.pub.Body(req.Markdown, req.Language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, renderResp{Blocks: blockTree(req.Markdown), HTML: body})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out, err := s.pub.Export(survey.Plan, survey.Answers.Language, r.PathValue("format"))
	if errors.Is(err, publisher.ErrFormatUnavailable) {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	} else if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	_, _ = w.Write(out.Body)
}

func (s *Server) handlePlanPage(w http.ResponseWriter, r *http.Request) {
	survey, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	page, err := s.pub.Document(survey.Plan, survey.Answers.Language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// statsResp carries the dashboard counters. Goal tracking does not exist
// yet, so GoalsCompleted stays zero.
type statsResp struct {
	TotalSurveys    int    `json:"totalSurveys"`
	PlansGenerated  int    `json:"plansGenerated"`
	GoalsCompleted  int    `json:"goalsCompleted"`
	LastActivity    string `json:"lastActivity"`
	LastActivityAgo string `json:"lastActivityAgo"`
	Engine          string `json:"engine"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := statsResp{
		TotalSurveys:    len(surveys),
		LastActivityAgo: "never",
		Engine:          s.pub.Engine(),
	}
	var last time.Time
	for _, sv := range surveys {
		resp.PlansGenerated += len(sv.History)
		if sv.UpdatedAt.After(last) {
			last = sv.UpdatedAt
		}
	}
	if !last.IsZero() {
		resp.LastActivity = last.Format(time.RFC3339)
		resp.LastActivityAgo = humanize.Time(last)
	}
	writeJSON(w, http.StatusOK, resp)
}
