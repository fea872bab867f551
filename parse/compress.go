package parse

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
)

// bitset is a flat bit vector used to track which (row class, column
// class) entries are error entries, independent of the live-action
// payload.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << uint(i%64) }
func (b bitset) get(i int) bool { return b[i/64]&(1<<uint(i%64)) != 0 }

// CompressedTable is a size-reduced encoding of a Table: states (rows) and
// terminals (columns) whose behavior is identical collapse into shared
// equivalence classes. Both class computations compare full signatures,
// error entries included, in a single pass; afterwards, which column
// classes of each row class are errors is stored as a bitmask kept
// separate from the live-action payload map.
type CompressedTable struct {
	Terminals    []string
	NonTerminals []string

	RowClassOf []int // original state index -> row class
	rowReps    []int // one representative original state per row class

	ColClassOf map[string]int // terminal -> column class
	colReps    []string

	GotoColClassOf map[string]int
	gotoColReps    []string

	NumRowClasses     int
	NumColClasses     int
	NumGotoColClasses int

	// Start is the row class of the original table's start state; every
	// Action/Goto call on a CompressedTable operates in row-class space
	// (shift targets and goto destinations are stored pre-remapped to row
	// classes), so Start is the entry point a driver should begin with
	// rather than the original table's Start.
	Start int

	// errorBits[rowClass] has one bit per column class, set when that
	// entry is LRError.
	errorBits []bitset
	// payload[rowClass] holds only the non-error actions for that row
	// class, keyed by column class index.
	payload []map[int]LRAction

	// gotoBits[rowClass] has one bit per goto column class, set when a
	// goto is defined.
	gotoBits []bitset
	// gotoPayload[rowClass] maps goto column class to destination row
	// class.
	gotoPayload []map[int]int
}

// classifyColumns groups each column name into an equivalence class by the
// signature valueOf(rep, column) produces across every row-class
// representative, so two columns behaving identically for every row
// collapse into one.
func classifyColumns(cols []string, rowReps []int, valueOf func(rep int, col string) string) (map[string]int, []string) {
	sigOf := map[string]string{}
	for _, col := range cols {
		sig := ""
		for _, rep := range rowReps {
			sig += valueOf(rep, col) + "\x1f"
		}
		sigOf[col] = sig
	}
	classOf := map[string]int{}
	sigToClass := map[string]int{}
	var reps []string
	for _, col := range cols {
		sig := sigOf[col]
		cls, ok := sigToClass[sig]
		if !ok {
			cls = len(reps)
			sigToClass[sig] = cls
			reps = append(reps, col)
		}
		classOf[col] = cls
	}
	return classOf, reps
}

// Compress builds a CompressedTable from t by deduplicating states that
// act identically and terminals/non-terminals that are treated identically
// by every surviving state.
func Compress(t *Table) *CompressedTable {
	terms := append(append([]string(nil), t.Grammar.Terminals()...), grammar.EndOfInput)
	_, nts := t.Grammar.Symbols()

	rowClassOf := make([]int, t.NumStates)
	sigToClass := map[string]int{}
	var rowReps []int
	for s := 0; s < t.NumStates; s++ {
		sig := rowSignature(t, s, terms, nts)
		cls, ok := sigToClass[sig]
		if !ok {
			cls = len(rowReps)
			sigToClass[sig] = cls
			rowReps = append(rowReps, s)
		}
		rowClassOf[s] = cls
	}

	colClassOf, colReps := classifyColumns(terms, rowReps, func(rep int, col string) string {
		return t.Action(rep, col).String()
	})
	gotoColClassOf, gotoColReps := classifyColumns(nts, rowReps, func(rep int, col string) string {
		g, err := t.Goto(rep, col)
		if err != nil {
			return "err"
		}
		return fmt.Sprintf("%d", rowClassOf[g])
	})

	ct := &CompressedTable{
		Terminals: terms, NonTerminals: nts,
		RowClassOf: rowClassOf, rowReps: rowReps,
		ColClassOf: colClassOf, colReps: colReps,
		GotoColClassOf: gotoColClassOf, gotoColReps: gotoColReps,
		NumRowClasses: len(rowReps), NumColClasses: len(colReps), NumGotoColClasses: len(gotoColReps),
		Start: rowClassOf[t.Start],
	}

	ct.errorBits = make([]bitset, len(rowReps))
	ct.payload = make([]map[int]LRAction, len(rowReps))
	ct.gotoBits = make([]bitset, len(rowReps))
	ct.gotoPayload = make([]map[int]int, len(rowReps))

	for rc, rep := range rowReps {
		ct.errorBits[rc] = newBitset(len(colReps))
		ct.payload[rc] = map[int]LRAction{}
		for cc, colTerm := range colReps {
			act := t.Action(rep, colTerm)
			if act.Type == LRError {
				ct.errorBits[rc].set(cc)
			} else {
				if act.Type == LRShift {
					act.State = rowClassOf[act.State]
				}
				ct.payload[rc][cc] = act
			}
		}

		ct.gotoBits[rc] = newBitset(len(gotoColReps))
		ct.gotoPayload[rc] = map[int]int{}
		for gc, nt := range gotoColReps {
			if g, err := t.Goto(rep, nt); err == nil {
				ct.gotoBits[rc].set(gc)
				ct.gotoPayload[rc][gc] = rowClassOf[g]
			}
		}
	}

	return ct
}

func rowSignature(t *Table, state int, terms, nts []string) string {
	sig := ""
	for _, term := range terms {
		sig += t.Action(state, term).String() + "\x1f"
	}
	for _, nt := range nts {
		if g, err := t.Goto(state, nt); err == nil {
			sig += fmt.Sprintf("%d", g)
		}
		sig += "\x1f"
	}
	return sig
}

// Action returns the ACTION entry for (rowClass, terminal). rowClass is a
// row-class index (as returned by Start, or by a prior Action/Goto call on
// this same CompressedTable) — not an original Table state index; shift
// targets and goto destinations are pre-remapped to row-class indices at
// Compress time so a driver never needs to convert back.
func (ct *CompressedTable) Action(rowClass int, terminal string) LRAction {
	cc, ok := ct.ColClassOf[terminal]
	if !ok {
		return LRAction{Type: LRError}
	}
	if ct.errorBits[rowClass].get(cc) {
		return LRAction{Type: LRError}
	}
	return ct.payload[rowClass][cc]
}

// Goto returns the GOTO entry for (rowClass, nonTerminal); see Action for
// the row-class-space convention.
func (ct *CompressedTable) Goto(rowClass int, nonTerminal string) (int, error) {
	gc, ok := ct.GotoColClassOf[nonTerminal]
	if !ok || !ct.gotoBits[rowClass].get(gc) {
		return 0, fmt.Errorf("GOTO[%d, %q] is an error entry", rowClass, nonTerminal)
	}
	return ct.gotoPayload[rowClass][gc], nil
}
