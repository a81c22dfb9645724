package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/httputil"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/orbit"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/visibility"
)

// satelliteHandlers serves the TLE-backed endpoints.
type satelliteHandlers struct {
	logger       *slog.Logger
	loader       *tle.Loader
	finder       *visibility.Finder
	solver       *engine.Solver
	minElevation float64
	now          func() time.Time
}

// dataset returns the loaded dataset, writing 503 when there is none.
func (h *satelliteHandlers) dataset(w http.ResponseWriter) *tle.Dataset {
	if h.loader == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "TLE data not configured")
		return nil
	}
	ds := h.loader.Store().Get()
	if ds == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, tle.ErrNoDataset.Error())
		return nil
	}
	return ds
}

func (h *satelliteHandlers) visible(w http.ResponseWriter, r *http.Request) {
	if h.finder == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "visibility not configured")
		return
	}
	q := r.URL.Query()
	obs, minEl, err := h.observerParams(q)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds := h.dataset(w)
	if ds == nil {
		return
	}

	sightings, err := h.finder.Visible(r.Context(), ds.Satellites, obs, h.now(), minEl)
	if err != nil {
		h.logger.Warn("visibility search aborted", "component", "api", "request_id", RequestID(r.Context()), "error", err)
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if detail, _ := strconv.ParseBool(q.Get("detail")); detail {
		httputil.WriteJSON(w, http.StatusOK, sightings)
		return
	}
	names := make([]string, len(sightings))
	for i, s := range sightings {
		names[i] = s.Name
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

type elementsResponse struct {
	NORADID  int                 `json:"norad_id"`
	Name     string              `json:"name"`
	Epoch    time.Time           `json:"epoch"`
	Time     time.Time           `json:"time"`
	Subpoint visibility.Geodetic `json:"subpoint"`
	Results  map[string]any      `json:"results"`
}

// elements propagates one satellite to now and runs its state vector through
// the solver.
func (h *satelliteHandlers) elements(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "norad_id must be a positive integer")
		return
	}

	ds := h.dataset(w)
	if ds == nil {
		return
	}
	entry, ok := ds.Lookup(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, fmt.Sprintf("satellite %d not found", id))
		return
	}

	at := h.now().UTC().Truncate(time.Second)
	pos, vel, err := visibility.StateAt(entry, at)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, visibility.ErrInvalidTLE) {
			status = http.StatusUnprocessableEntity
		}
		httputil.WriteError(w, status, err.Error())
		return
	}

	st := h.solver.Solve(map[string]any{
		orbit.R:  pos,
		orbit.V:  vel,
		orbit.Mu: orbit.EarthMu,
	})
	ecef, _ := visibility.TEMEToECEF(pos, vel, visibility.GMST(at))

	httputil.WriteJSON(w, http.StatusOK, elementsResponse{
		NORADID:  entry.NORADID,
		Name:     entry.Name,
		Epoch:    entry.Epoch,
		Time:     at,
		Subpoint: visibility.ToGeodetic(ecef),
		Results:  st.Export(),
	})
}

const (
	defaultPassHours = 24.0
	maxPassHours     = 72.0
	defaultMaxPasses = 10
	maxPassesLimit   = 50
)

type passesResponse struct {
	NORADID int               `json:"norad_id"`
	Name    string            `json:"name"`
	Passes  []visibility.Pass `json:"passes"`
}

// passes predicts upcoming passes of one satellite over an observer.
func (h *satelliteHandlers) passes(w http.ResponseWriter, r *http.Request) {
	if h.finder == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "visibility not configured")
		return
	}
	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "norad_id must be a positive integer")
		return
	}

	q := r.URL.Query()
	obs, minEl, err := h.observerParams(q)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hours, err := floatParam(q, "hours", ptr(defaultPassHours))
	if err != nil || hours <= 0 || hours > maxPassHours {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("hours must be within (0, %g]", maxPassHours))
		return
	}
	maxPasses := defaultMaxPasses
	if s := q.Get("max_passes"); s != "" {
		maxPasses, err = strconv.Atoi(s)
		if err != nil || maxPasses < 1 || maxPasses > maxPassesLimit {
			httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("max_passes must be within [1, %d]", maxPassesLimit))
			return
		}
	}

	ds := h.dataset(w)
	if ds == nil {
		return
	}
	entry, ok := ds.Lookup(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, fmt.Sprintf("satellite %d not found", id))
		return
	}

	passes, err := h.finder.Passes(r.Context(), entry, obs, visibility.PassQuery{
		Start:        h.now().UTC().Truncate(time.Second),
		Window:       time.Duration(hours * float64(time.Hour)),
		MinElevation: minEl,
		MaxPasses:    maxPasses,
	})
	switch {
	case errors.Is(err, visibility.ErrInvalidTLE):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Warn("pass prediction aborted", "component", "api", "request_id", RequestID(r.Context()), "error", err)
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if passes == nil {
		passes = []visibility.Pass{}
	}
	httputil.WriteJSON(w, http.StatusOK, passesResponse{NORADID: entry.NORADID, Name: entry.Name, Passes: passes})
}

func (h *satelliteHandlers) metadata(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w)
	if ds == nil {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ds.Metadata())
}

func (h *satelliteHandlers) reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "TLE data not configured")
		return
	}
	ds, err := h.loader.Load(r.Context())
	if err != nil {
		h.logger.Error("TLE reload failed", "component", "api", "request_id", RequestID(r.Context()), "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "TLE reload failed: "+err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ds.Metadata())
}

// observerParams reads lat, lon, alt (metres, default 0) and min_elevation
// (default from config).
func (h *satelliteHandlers) observerParams(q url.Values) (visibility.Observer, float64, error) {
	lat, err := floatParam(q, "lat", nil)
	if err != nil {
		return visibility.Observer{}, 0, err
	}
	lon, err := floatParam(q, "lon", nil)
	if err != nil {
		return visibility.Observer{}, 0, err
	}
	alt, err := floatParam(q, "alt", ptr(0.0))
	if err != nil {
		return visibility.Observer{}, 0, err
	}
	minEl, err := floatParam(q, "min_elevation", &h.minElevation)
	if err != nil {
		return visibility.Observer{}, 0, err
	}
	if minEl < -90 || minEl > 90 {
		return visibility.Observer{}, 0, errors.New("min_elevation must be within [-90, 90]")
	}
	obs, err := visibility.NewObserver(lat, lon, alt)
	if err != nil {
		return visibility.Observer{}, 0, err
	}
	return obs, minEl, nil
}

func ptr[T any](v T) *T { return &v }

// floatParam parses a finite float query parameter. A nil def makes it required.
func floatParam(q url.Values, name string, def *float64) (float64, error) {
	s := q.Get(name)
	if s == "" {
		if def == nil {
			return 0, fmt.Errorf("%s is required", name)
		}
		return *def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return f, nil
}
