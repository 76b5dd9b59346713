// Package vehiclecache is the default, concrete avl.VehicleDataCache: an
// in-memory map guarded by a sync.RWMutex, exposed read-only over HTTP,
// grounded on gtfs-tripupdate-svc's web_service.go handler-struct-plus-
// mux.Router shape.
package vehiclecache

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/transitcast/core/business/data/avl"
)

// Cache is a thread-safe map of the latest Snapshot per vehicle.
type Cache struct {
	mu       sync.RWMutex
	vehicles map[string]avl.Snapshot
}

func New() *Cache {
	return &Cache{vehicles: make(map[string]avl.Snapshot)}
}

// UpdateVehicle implements avl.VehicleDataCache.
func (c *Cache) UpdateVehicle(snapshot avl.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles[snapshot.VehicleId] = snapshot
}

// GetVehiclesByBlockId implements avl.VehicleDataCache.
func (c *Cache) GetVehiclesByBlockId(blockId string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []string
	for id, snap := range c.vehicles {
		if snap.BlockId == blockId {
			result = append(result, id)
		}
	}
	return result
}

func (c *Cache) all() []avl.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]avl.Snapshot, 0, len(c.vehicles))
	for _, snap := range c.vehicles {
		result = append(result, snap)
	}
	return result
}

func (c *Cache) get(vehicleId string) (avl.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.vehicles[vehicleId]
	return snap, ok
}

// jsonSnapshotsResponse wraps Snapshots the way tripupdate's
// JsonTripUpdateResponseWrapper wraps TripUpdates.
type jsonSnapshotsResponse struct {
	Timestamp int64          `json:"timestamp"`
	Vehicles  []avl.Snapshot `json:"vehicles"`
}

// vehicleHandler serves the full snapshot list, or a single vehicle when
// the "vehicleId" route var is set.
type vehicleHandler struct {
	cache *Cache
}

func (h *vehicleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if vehicleId := mux.Vars(r)["vehicleId"]; vehicleId != "" {
		h.serveOne(w, vehicleId)
		return
	}
	h.serveAll(w)
}

func (h *vehicleHandler) serveAll(w http.ResponseWriter) {
	writeJSON(w, jsonSnapshotsResponse{
		Timestamp: time.Now().Unix(),
		Vehicles:  h.cache.all(),
	})
}

func (h *vehicleHandler) serveOne(w http.ResponseWriter, vehicleId string) {
	snap, ok := h.cache.get(vehicleId)
	if !ok {
		http.Error(w, "vehicle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
	}
}

type healthHandler struct{}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

// NewServer builds the http.Server exposing the cache read-only, on the
// same route shapes as gtfs-tripupdate-svc's web service.
func NewServer(cache *Cache, httpPort int) *http.Server {
	r := mux.NewRouter()
	r.Handle("/", &healthHandler{})
	r.Handle("/vehicles", &vehicleHandler{cache: cache})
	r.Handle("/vehicles/{vehicleId}", &vehicleHandler{cache: cache})

	return &http.Server{
		Addr:         strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      r,
	}
}
