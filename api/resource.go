package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/attendance-engine/generic"
)

// resource serves the five CRUD routes of one entity kind. Writes go through
// generic.Validating so invalid records never reach the store.
type resource[T generic.Validatable] struct {
	h    *Handler
	kind string
	repo generic.Repository[T]

	// remove replaces the plain repository delete when set.
	remove func(r *http.Request, id int64) (bool, error)
}

func newResource[T generic.Validatable](h *Handler, kind string, repo generic.Repository[T]) *resource[T] {
	return &resource[T]{h: h, kind: kind, repo: generic.NewValidating(repo)}
}

func (res *resource[T]) mount(r chi.Router) {
	r.Get("/", res.list)
	r.Post("/", res.create)
	r.Get("/{id}", res.get)
	r.Put("/{id}", res.update)
	r.Delete("/{id}", res.delete)
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		res.h.writeDomainError(w, r, "Invalid filter", err)
		return
	}
	items, err := res.repo.Fetch(r.Context(), filter)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to list "+res.kind+"s", err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(items))
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.h.writeDomainError(w, r, "Invalid id", err)
		return
	}
	item, err := res.repo.Get(r.Context(), id)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to get "+res.kind, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := res.repo.Insert(r.Context(), item)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to create "+res.kind, err)
		return
	}
	saved, err := res.repo.Get(r.Context(), id)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to load "+res.kind, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.h.writeDomainError(w, r, "Invalid id", err)
		return
	}
	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ok, err := res.repo.Update(r.Context(), id, item)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to update "+res.kind, err)
		return
	}
	if !ok {
		res.h.writeDomainError(w, r, "Failed to update "+res.kind, &generic.NotFoundError{Kind: res.kind, ID: id})
		return
	}
	saved, err := res.repo.Get(r.Context(), id)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to load "+res.kind, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (res *resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.h.writeDomainError(w, r, "Invalid id", err)
		return
	}
	remove := res.remove
	if remove == nil {
		remove = func(r *http.Request, id int64) (bool, error) { return res.repo.Delete(r.Context(), id) }
	}
	ok, err := remove(r, id)
	if err != nil {
		res.h.writeDomainError(w, r, "Failed to delete "+res.kind, err)
		return
	}
	if !ok {
		res.h.writeDomainError(w, r, "Failed to delete "+res.kind, &generic.NotFoundError{Kind: res.kind, ID: id})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted", ID: id})
}
