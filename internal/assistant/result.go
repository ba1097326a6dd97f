package assistant

// ResultState distinguishes "the assistant said nothing useful" from the ways
// it can fail, instead of collapsing everything into an empty map.
type ResultState string

const (
	ResultOk       ResultState = "ok"
	ResultEmpty    ResultState = "empty"
	ResultTimedOut ResultState = "timed_out"
	ResultFailed   ResultState = "failed"
)

// Result is the outcome of one transcript submission.
type Result struct {
	State  ResultState
	Data   map[string]interface{}
	Reason string
}

func Ok(data map[string]interface{}) Result { return Result{State: ResultOk, Data: data} }
func Empty() Result                         { return Result{State: ResultEmpty} }
func TimedOut() Result                      { return Result{State: ResultTimedOut} }
func Failed(reason string) Result           { return Result{State: ResultFailed, Reason: reason} }

// Value returns the parsed payload, or an empty object for every non-ok
// state. Callers treating "no assistant output" as an explicit outcome use
// State directly.
func (r Result) Value() map[string]interface{} {
	if r.State == ResultOk && r.Data != nil {
		return r.Data
	}
	return map[string]interface{}{}
}
