package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/tuvi"
)

// errorBody is the JSON payload of a failed API call.
type errorBody struct {
	Error string `json:"error"`
}

// ChartResponse is the payload of the chart route. Fortune is present when
// a year was requested.
type ChartResponse struct {
	Chart   tuvi.BirthChart     `json:"chart"`
	Fortune *tuvi.YearlyFortune `json:"fortune,omitempty"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	q := r.URL.Query()
	date, acts, birthYear, err := dayParams(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rating, err := s.engine.RateDay(date, acts, birthYear)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, rating)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	date, acts, birthYear, err := dayParams(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	analysis, err := s.engine.DayAnalysis(date, acts, birthYear)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, analysis)
}

func (s *Server) handleGoodDays(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	q := r.URL.Query()

	from, err := engine.ParseDate(q.Get(config.QueryFrom))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := engine.ParseDate(q.Get(config.QueryTo))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	search := engine.NewSearchQuery(splitList(q.Get(config.QueryActivities)), from, to)
	if search.BirthYear, err = optionalInt(q, config.QueryBirthYear); err != nil {
		s.fail(w, r, err)
		return
	}
	if search.MinScore, err = intOr(q, config.QueryMinScore, search.MinScore); err != nil {
		s.fail(w, r, err)
		return
	}
	if search.MaxResults, err = intOr(q, config.QueryMaxResults, search.MaxResults); err != nil {
		s.fail(w, r, err)
		return
	}

	days, err := s.engine.FindGoodDays(r.Context(), search)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, days)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	q := r.URL.Query()

	year, month, day, err := tuvi.ParseBirthDate(q.Get(config.QueryDate))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	hour, err := intOr(q, config.QueryHour, config.MinHourIndex)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	leap, err := boolOr(q, config.QueryLeap, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	chart, err := s.charts.Build(tuvi.BirthInput{
		Year:      year,
		Month:     month,
		Day:       day,
		Calendar:  q.Get(config.QueryCalendar),
		Leap:      leap,
		HourIndex: hour,
		Gender:    q.Get(config.QueryGender),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := ChartResponse{Chart: chart}
	fortuneYear, err := optionalInt(q, config.QueryYear)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if fortuneYear != nil {
		f, err := tuvi.PredictYearlyFortune(chart, *fortuneYear)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Fortune = &f
	}
	writeJSON(w, resp)
}

// fail maps rejected input to 400 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, engine.ErrPrecondition) || errors.Is(err, tuvi.ErrPrecondition) {
		slog.Warn(config.MsgRequestFailed,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyRoute, r.URL.Path,
			config.LogKeyError, err,
		)
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
		return
	}
	slog.Error(config.MsgRequestFailed,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyRoute, r.URL.Path,
		config.LogKeyError, err,
	)
	http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// dayParams reads the date, activities and birth year shared by the day routes.
func dayParams(q url.Values) (time.Time, []string, *int, error) {
	date, err := engine.ParseDate(q.Get(config.QueryDate))
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	birthYear, err := optionalInt(q, config.QueryBirthYear)
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	return date, splitList(q.Get(config.QueryActivities)), birthYear, nil
}

// splitList splits a comma separated parameter, dropping blanks.
func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, config.InputSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func optionalInt(q url.Values, key string) (*int, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, paramError(key, raw)
	}
	return &v, nil
}

func intOr(q url.Values, key string, fallback int) (int, error) {
	v, err := optionalInt(q, key)
	if err != nil || v == nil {
		return fallback, err
	}
	return *v, nil
}

func boolOr(q url.Values, key string, fallback bool) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, paramError(key, raw)
	}
	return v, nil
}

func paramError(key, raw string) error {
	return fmt.Errorf("%w: %s=%q", engine.ErrPrecondition, key, raw)
}
