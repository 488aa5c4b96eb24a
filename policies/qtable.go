package policies

import (
	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/wumpus"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidTable = errors.New("invalid q table")

// QTable stores one row of action values per encoded state. Codes are
// dense, so rows live in a growable slice indexed by the code. A row is
// created, all zero, the first time the state is read.
type QTable struct {
	rows    [][]float64
	visited int
}

func NewQTable() *QTable {
	return &QTable{
		rows: make([][]float64, 0),
	}
}

// QTableFrom rebuilds a table from its exported form. Keys must be codes
// below numStates, the number of states the encoder had assigned; the
// table itself may be sparse.
func QTableFrom(values map[int][]float64, numStates int) (*QTable, error) {
	if numStates < len(values) {
		numStates = len(values)
	}
	q := NewQTable()
	for state, vals := range values {
		if state < 0 || state >= numStates {
			return nil, errors.Wrapf(ErrInvalidTable, "state %d not in [0, %d)", state, numStates)
		}
		if len(vals) != wumpus.NumActions {
			return nil, errors.Wrapf(ErrInvalidTable, "state %d has %d values, expected %d", state, len(vals), wumpus.NumActions)
		}
		copy(q.row(state), vals)
	}
	return q, nil
}

func (q *QTable) row(state int) []float64 {
	if state >= len(q.rows) {
		grown := make([][]float64, state+1)
		copy(grown, q.rows)
		q.rows = grown
	}
	if q.rows[state] == nil {
		q.rows[state] = make([]float64, wumpus.NumActions)
		q.visited += 1
	}
	return q.rows[state]
}

// Has reports whether the state has a row, without creating one
func (q *QTable) Has(state int) bool {
	return state >= 0 && state < len(q.rows) && q.rows[state] != nil
}

func (q *QTable) Get(state int, action wumpus.Action) float64 {
	return q.row(state)[action]
}

func (q *QTable) Set(state int, action wumpus.Action, val float64) {
	q.row(state)[action] = val
}

// Values returns a copy of the row of the state
func (q *QTable) Values(state int) []float64 {
	out := make([]float64, wumpus.NumActions)
	copy(out, q.row(state))
	return out
}

func (q *QTable) Max(state int) float64 {
	return floats.Max(q.row(state))
}

// Best returns the first action achieving the maximum value
func (q *QTable) Best(state int) (wumpus.Action, float64) {
	row := q.row(state)
	i := floats.MaxIdx(row)
	return wumpus.Action(i), row[i]
}

// Maximizers returns every action achieving the maximum value, in action order
func (q *QTable) Maximizers(state int) []wumpus.Action {
	row := q.row(state)
	max := floats.Max(row)
	out := make([]wumpus.Action, 0, len(row))
	for i, v := range row {
		if v == max {
			out = append(out, wumpus.Action(i))
		}
	}
	return out
}

// Len is the number of states with a row
func (q *QTable) Len() int {
	return q.visited
}

// States lists the states with a row in increasing order
func (q *QTable) States() []int {
	out := make([]int, 0, q.visited)
	for s, r := range q.rows {
		if r != nil {
			out = append(out, s)
		}
	}
	return out
}

// Export copies the table into a map suitable for serialization
func (q *QTable) Export() map[int][]float64 {
	out := make(map[int][]float64, q.visited)
	for _, s := range q.States() {
		row := make([]float64, wumpus.NumActions)
		copy(row, q.rows[s])
		out[s] = row
	}
	return out
}
