// Package fleet serves fleet predictions over HTTP.
package fleet

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetsizer/core/logger"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/solver"
	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

// PredictPath is where NewPredictHandler is mounted by the serve command.
const PredictPath = "/api/fleet/predict"

// maxBody bounds the size of a posted problem model.
const maxBody = 32 << 20

// SolverFunc resolves a fleet method by name; an empty name selects the default.
type SolverFunc func(method string) (solver.FleetSolver, error)

// Response is the body of a successful prediction.
type Response struct {
	RunID  string               `json:"run_id"`
	Method string               `json:"method"`
	Fleet  model.FleetStructure `json:"fleet"`
}

// NewPredictHandler returns an HTTP handler predicting the fleet of the
// problem model posted as JSON. The method query parameter picks the fleet
// method. Requests must include "Bearer <token>" when token is non-empty.
func NewPredictHandler(solvers SolverFunc, bus eventbus.EventBus, log logger.Logger, token string) http.Handler {
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var p model.ProblemModel
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&p); err != nil {
			http.Error(w, "decode problem: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fs, err := solvers(r.URL.Query().Get("method"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		runID := uuid.NewString()
		fleet, err := solver.PredictFleet(r.Context(), fs, p, runID, bus, log)
		switch {
		case errors.Is(err, solver.ErrInfeasible):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			log.Errorf("fleet api: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Response{RunID: runID, Method: fs.Name(), Fleet: fleet}); err != nil {
			log.Warnf("fleet api: write response: %v", err)
		}
	})
}
