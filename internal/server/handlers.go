package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/pascalwiersma/omroep-generator/internal/report"
	"github.com/pascalwiersma/omroep-generator/internal/route"
	"github.com/pascalwiersma/omroep-generator/internal/session"
)

type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Stations    int    `json:"stations"`
}

type StationsResponse struct {
	Stations []string `json:"stations"`
}

type CatalogResponse struct {
	TrainTypes []string `json:"trainTypes"`
	Notices    []string `json:"notices"`
}

// AnnouncementRequest carries a full selection. RemoveStops is applied to
// the derived route before composing.
type AnnouncementRequest struct {
	TrainType   string   `json:"trainType"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Hour        *int     `json:"hour"`
	Minute      *int     `json:"minute"`
	Notices     []string `json:"notices"`
	RemoveStops []string `json:"removeStops"`
}

type AnnouncementResponse struct {
	Announcement      string   `json:"announcement"`
	IntermediateStops []string `json:"intermediateStops"`
	Notices           []string `json:"notices"`
	RouteError        string   `json:"routeError,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:      "available",
		Environment: s.cfg.Server.Env,
		Version:     s.version,
		Stations:    s.directory.Len(),
	})
}

func (s *Server) stationsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writeJSON(w, http.StatusOK, StationsResponse{
		Stations: s.directory.Match(query.Get("q"), query["exclude"]...),
	})
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession()
	writeJSON(w, http.StatusOK, CatalogResponse{
		TrainTypes: sess.TrainTypes(),
		Notices:    sess.NoticeCatalog(),
	})
}

func (s *Server) announcementsHandler(w http.ResponseWriter, r *http.Request) {
	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	sess := s.newSession()

	pending, err := s.apply(ctx, sess, req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var routeErr error
	if pending != nil {
		select {
		case out := <-pending:
			routeErr = out.Err
		case <-ctx.Done():
			return
		}
	}
	if routeErr != nil {
		report.RouteFailure(routeErr, req.From, req.To)
	}

	for _, stop := range req.RemoveStops {
		sess.RemoveStop(stop)
	}

	text, err := sess.Compose()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := AnnouncementResponse{
		Announcement:      text,
		IntermediateStops: sess.IntermediateStops(),
		Notices:           sess.Notices(),
	}
	if routeErr != nil {
		resp.RouteError = routeErr.Error()
	}

	s.logger.WithFields(logrus.Fields{
		"from":        req.From,
		"to":          req.To,
		"route_error": routeErr != nil,
	}).Info("announcement composed")

	writeJSON(w, http.StatusOK, resp)
}

// apply feeds the request into the session and returns the outcome channel
// of the last route request it scheduled.
func (s *Server) apply(ctx context.Context, sess *session.Session, req AnnouncementRequest) (<-chan route.Outcome, error) {
	if req.TrainType != "" {
		if err := sess.SetTrainType(req.TrainType); err != nil {
			return nil, err
		}
	}

	var pending <-chan route.Outcome
	track := func(ch <-chan route.Outcome) {
		if ch != nil {
			pending = ch
		}
	}

	if req.From != "" {
		ch, err := sess.SelectFrom(ctx, req.From)
		if err != nil {
			return nil, err
		}
		track(ch)
	}
	if req.To != "" {
		ch, err := sess.SelectTo(ctx, req.To)
		if err != nil {
			return nil, err
		}
		track(ch)
	}
	if req.Hour != nil {
		if *req.Hour < 0 {
			return nil, errors.New("hour must be between 0 and 23")
		}
		ch, ok := sess.SetHour(ctx, strconv.Itoa(*req.Hour))
		if !ok {
			return nil, errors.New("hour must be between 0 and 23")
		}
		track(ch)
	}
	if req.Minute != nil {
		if *req.Minute < 0 {
			return nil, errors.New("minute must be between 0 and 59")
		}
		ch, ok := sess.SetMinute(ctx, strconv.Itoa(*req.Minute))
		if !ok {
			return nil, errors.New("minute must be between 0 and 59")
		}
		track(ch)
	}

	for _, n := range req.Notices {
		if _, err := sess.ToggleNotice(n); err != nil {
			return nil, err
		}
		if !slices.Contains(sess.Notices(), n) {
			return nil, fmt.Errorf("duplicate notice %q", n)
		}
	}

	return pending, nil
}

func (s *Server) newSession() *session.Session {
	coordinator := route.NewCoordinator(s.finder, s.cfg.RouteService.Timeout, s.logger)
	return session.New(s.directory, coordinator, s.cfg.TrainTypes, s.cfg.Notices, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
