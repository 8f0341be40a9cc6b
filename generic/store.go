/*
store.go - CRUD contract between the domain logic and persistence

PURPOSE:
  Defines the four operations every entity kind supports, independent of
  which database holds it. The engine never writes; the CRUD surface
  exists for the HTTP layer, the importers and the demo scenarios.

KEY INTERFACES:
  Repository[T]: Fetch / Get / Insert / Update / Delete for one entity kind
  Validatable:   Records that check their own invariants before a write
  Validating[T]: Wraps any Repository and rejects invalid writes

ATOMICITY:
  Every write is single-record and all-or-nothing. The one multi-table
  write, deleting an employee with its dependent records, is done by the
  store inside one transaction.

FILTERING:
  Filter fields are optional and combined with AND. Range filters select
  records whose date (or period) overlaps [From, To].

IMPLEMENTATIONS:
  - store/memory:   In-memory for tests and demos
  - store/sqlite:   Default on-disk store
  - store/postgres: pgx + golang-migrate

SEE ALSO:
  - attendance/store.go: The aggregate Store over all repositories
*/
package generic

import "context"

// =============================================================================
// FILTER
// =============================================================================

// Filter narrows a Fetch. Zero values mean "no constraint".
type Filter struct {
	EmployeeID int64
	Department string
	Year       int
	// Range selects records touching [Range.Start, Range.End].
	Range *Period
}

// ForEmployee is shorthand for the common single-employee filter.
func ForEmployee(id int64) Filter {
	return Filter{EmployeeID: id}
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the CRUD surface for one entity kind.
type Repository[T any] interface {
	// Fetch returns every record matching the filter in a stable order.
	Fetch(ctx context.Context, filter Filter) ([]T, error)

	// Get returns the record or a *NotFoundError.
	Get(ctx context.Context, id int64) (T, error)

	// Insert persists a new record and returns the id the store assigned.
	Insert(ctx context.Context, record T) (int64, error)

	// Update replaces the record; false when no record has that id.
	Update(ctx context.Context, id int64, record T) (bool, error)

	// Delete removes the record; false when no record has that id.
	Delete(ctx context.Context, id int64) (bool, error)
}

// Validatable records check their own invariants.
type Validatable interface {
	Validate() error
}

// Validating rejects writes that fail Validate before they reach the store.
type Validating[T Validatable] struct {
	Repository[T]
}

// NewValidating wraps repo.
func NewValidating[T Validatable](repo Repository[T]) *Validating[T] {
	return &Validating[T]{Repository: repo}
}

func (v *Validating[T]) Insert(ctx context.Context, record T) (int64, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	return v.Repository.Insert(ctx, record)
}

func (v *Validating[T]) Update(ctx context.Context, id int64, record T) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}
	return v.Repository.Update(ctx, id, record)
}
