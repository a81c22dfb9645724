package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/httputil"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/orbit"
)

// calculateRequest is the body of POST /api/v1/calculate. Knowns carries any
// further catalogue quantities by name (numbers or 3-element arrays).
type calculateRequest struct {
	R      []float64      `json:"r"`
	V      []float64      `json:"v"`
	A      *float64       `json:"a"`
	E      *float64       `json:"e"`
	Mu     *float64       `json:"mu"`
	Knowns map[string]any `json:"knowns"`
}

type calculateResponse struct {
	Results     map[string]any    `json:"results"`
	Derivations map[string]string `json:"derivations,omitempty"`
}

// knowns validates the request and maps it to solver inputs.
func (req calculateRequest) knowns() (map[string]any, error) {
	if req.Mu == nil {
		return nil, fmt.Errorf("mu is required")
	}
	if err := orbit.GravitationalParameter(*req.Mu); err != nil {
		return nil, err
	}
	// Named fields win over the same quantity in Knowns.
	k := make(map[string]any, len(req.Knowns)+5)
	for _, name := range sortedNames(req.Knowns) {
		v, err := orbit.Quantity(req.Knowns[name])
		if err != nil {
			return nil, fmt.Errorf("knowns.%s: %w", name, err)
		}
		k[name] = v
	}
	k[orbit.Mu] = *req.Mu

	if req.R != nil {
		r, err := orbit.Vector(req.R)
		if err != nil {
			return nil, fmt.Errorf("r: %w", err)
		}
		k[orbit.R] = r
	}
	if req.V != nil {
		v, err := orbit.Vector(req.V)
		if err != nil {
			return nil, fmt.Errorf("v: %w", err)
		}
		k[orbit.V] = v
	}
	if req.A != nil {
		if !isFinite(*req.A) {
			return nil, fmt.Errorf("a must be finite")
		}
		k[orbit.SemiMajorAxis] = *req.A
	}
	if req.E != nil {
		if !isFinite(*req.E) || *req.E < 0 {
			return nil, fmt.Errorf("e must be a finite non-negative number")
		}
		k[orbit.Eccentricity] = *req.E
	}
	return k, nil
}

func calculateHandler(logger *slog.Logger, solver *engine.Solver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calculateRequest
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		knowns, err := req.knowns()
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		explain, _ := strconv.ParseBool(r.URL.Query().Get("explain"))

		st, stats := solver.Run(knowns)
		resp := calculateResponse{Results: st.Export()}
		if explain {
			resp.Derivations = st.Derivations()
		}

		logger.Debug("calculated",
			"component", "api",
			"request_id", RequestID(r.Context()),
			"knowns", len(knowns),
			"quantities", st.Len(),
			"sweeps", stats.Sweeps,
		)
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

type transferRequest struct {
	R1 *float64 `json:"r1"`
	R2 *float64 `json:"r2"`
	Mu *float64 `json:"mu"`
}

// transferHandler computes a Hohmann transfer directly, without the solver.
func transferHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.R1 == nil || req.R2 == nil || req.Mu == nil {
			httputil.WriteError(w, http.StatusBadRequest, "r1, r2 and mu are required")
			return
		}

		t, err := orbit.Hohmann(*req.R1, *req.R2, *req.Mu)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, t)
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
