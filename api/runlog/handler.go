// Package runlog exposes the simulated days of the run log over HTTP.
package runlog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/fleetsizer/core/runlog"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

// DaysPath is where NewDaysHandler is mounted by the serve command.
const DaysPath = "/api/runlog/days"

// NewDaysHandler returns an HTTP handler listing run log records via GET.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
// Query parameters: start and end (RFC3339), run_id, day_type and failed.
func NewDaysHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (runlog.Query, error) {
	v := r.URL.Query()
	q := runlog.Query{RunID: v.Get("run_id")}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("day_type"); s != "" {
		dt, err := simulation.ParseDayType(s)
		if err != nil {
			return q, err
		}
		q.DayType = dt.String()
	}
	if s := v.Get("failed"); s != "" {
		if q.FailedOnly, err = strconv.ParseBool(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
