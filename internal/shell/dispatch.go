package shell

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fathomhq/fathom-cli/internal/query"
)

// Dispatcher executes one query against the remote service.
type Dispatcher interface {
	Query(ctx context.Context, query string) (*query.Response, error)
}

// Recorder receives one entry per dispatched query, best-effort.
type Recorder interface {
	Record(stat QueryStat)
}

// QueryStat describes one dispatch outcome for the stats log.
type QueryStat struct {
	Duration time.Duration
	Rows     int
	Err      error
}

// queryResultMsg delivers a dispatch outcome back to the event loop. The
// loop keeps servicing input and redraws while the call is in flight; this
// message is the only way a result enters the model.
type queryResultMsg struct {
	resp    *query.Response
	err     error
	elapsed time.Duration
}

// dispatchQuery runs the query on its own goroutine and reports completion
// as a message. The model enforces that only one of these is outstanding.
func dispatchQuery(ctx context.Context, d Dispatcher, rec Recorder, q string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		resp, err := d.Query(ctx, q)
		elapsed := time.Since(start)

		if rec != nil {
			rows := 0
			if resp != nil {
				rows = len(resp.Data)
			}
			rec.Record(QueryStat{Duration: elapsed, Rows: rows, Err: err})
		}

		return queryResultMsg{resp: resp, err: err, elapsed: elapsed}
	}
}
