// SPDX-License-Identifier: MIT
//
// Cache API handlers.
//

package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"vmemcache/cache"
	"vmemcache/config"
	"vmemcache/log"
)

type ApiHandler struct {
	cache *cache.Cache
	mux   *http.ServeMux
}

func NewApiHandler(c *cache.Cache) *ApiHandler {
	h := &ApiHandler{
		cache: c,
		mux:   http.NewServeMux(),
	}
	// NOTE: Patterns require Go 1.22.0+
	h.mux.HandleFunc("POST /put", h.put)
	h.mux.HandleFunc("GET /get", h.get)
	h.mux.HandleFunc("DELETE /evict", h.evict)
	h.mux.HandleFunc("GET /stats", h.stats)
	h.mux.HandleFunc("GET /version", h.getVersion)
	return h
}

func (h *ApiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// putRequest carries a key and value as base64, since cache keys and
// values are arbitrary byte strings, not necessarily valid UTF-8.
type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Put a value into the cache.
// Input: {"key": base64, "value": base64}
// Return:
// - 400: bad request (invalid JSON, invalid base64)
// - 409: key already present
// - 507: heap exhausted
// - 204: success
func (h *ApiHandler) put(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := readJSON(r, &req); err != nil {
		log.Warnf("put: invalid request body: %v", err)
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	key, err := base64.StdEncoding.DecodeString(req.Key)
	if err != nil {
		http.Error(w, "bad request: invalid key encoding", http.StatusBadRequest)
		return
	}
	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		http.Error(w, "bad request: invalid value encoding", http.StatusBadRequest)
		return
	}

	switch err := h.cache.Put(key, value); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, cache.ErrHeapExhausted):
		http.Error(w, "heap exhausted", http.StatusInsufficientStorage)
	default:
		http.Error(w, "conflict: "+err.Error(), http.StatusConflict)
	}
}

type getResponse struct {
	Value string `json:"value"`
}

// Get a value from the cache.
// Input: ?key=<base64 query param>
// Return:
// - 400: bad request
// - 404: key not present
// - 200: {"value": base64}
func (h *ApiHandler) get(w http.ResponseWriter, r *http.Request) {
	key, err := base64.StdEncoding.DecodeString(r.URL.Query().Get("key"))
	if err != nil {
		http.Error(w, "bad request: invalid key encoding", http.StatusBadRequest)
		return
	}

	value, ok := h.cache.Get(key)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, &getResponse{Value: base64.StdEncoding.EncodeToString(value)})
}

// Evict a key from the cache.
// Input: ?key=<base64 query param>
// Return:
// - 400: bad request
// - 404: key not present
// - 204: success
func (h *ApiHandler) evict(w http.ResponseWriter, r *http.Request) {
	key, err := base64.StdEncoding.DecodeString(r.URL.Query().Get("key"))
	if err != nil {
		http.Error(w, "bad request: invalid key encoding", http.StatusBadRequest)
		return
	}

	if ok := h.cache.Evict(key); !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats reports current cache occupancy.
func (h *ApiHandler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.cache.Stats())
}

func (h *ApiHandler) getVersion(w http.ResponseWriter, r *http.Request) {
	vi := config.GetVersion()
	var resp = struct {
		Version string `json:"version"`
		Date    string `json:"date"`
	}{
		Version: vi.Version,
		Date:    vi.Date,
	}
	writeJSON(w, &resp)
}
