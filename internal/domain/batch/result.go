package batch

// ItemStatus is the processing outcome of a single bulk item.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of enriching one document in a bulk request.
// A failed document never carries a partially enriched payload.
type Result struct {
	index  int
	status ItemStatus
	err    error
}

// NewOK creates a successful bulk result.
func NewOK(index int) Result { return Result{index: index, status: StatusOK} }

// NewError creates a failed bulk result.
func NewError(index int, err error) Result {
	return Result{index: index, status: StatusError, err: err}
}

// Index returns the item position in the bulk request.
func (r Result) Index() int { return r.index }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
