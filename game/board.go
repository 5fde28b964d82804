package game

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Mark is the content of a single board cell.
type Mark string

const (
	MarkEmpty Mark = " "
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Cells is the number of cells on the board.
const Cells = 9

var ErrInvalidPosition = errors.New("invalid board position")

// winLines are the 8 canonical winning triples: 3 rows, 3 columns, 2 diagonals.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Result classifies the outcome of a board.
type Result int

const (
	ResultNone Result = iota
	ResultWin
	ResultDraw
)

// Board is a 3x3 grid stored row-major. The zero value is not a valid
// board; use NewBoard.
type Board [Cells]Mark

func NewBoard() Board {
	var b Board
	for i := range b {
		b[i] = MarkEmpty
	}
	return b
}

// Apply returns a copy of the board with mark placed at index. It fails
// with ErrInvalidPosition if the index is out of range or the cell is
// already occupied. The receiver is never modified.
func (b Board) Apply(index int, mark Mark) (Board, error) {
	if index < 0 || index >= Cells {
		return b, ErrInvalidPosition
	}
	if b[index] != MarkEmpty {
		return b, ErrInvalidPosition
	}
	b[index] = mark
	return b, nil
}

// Outcome evaluates the board. On ResultWin the winning mark is returned;
// otherwise the mark is MarkEmpty. Total over every possible board.
func (b Board) Outcome() (Result, Mark) {
	for _, line := range winLines {
		a := b[line[0]]
		if a != MarkEmpty && a == b[line[1]] && a == b[line[2]] {
			return ResultWin, a
		}
	}
	if b.Occupied() == Cells {
		return ResultDraw, MarkEmpty
	}
	return ResultNone, MarkEmpty
}

// Occupied counts the non-empty cells.
func (b Board) Occupied() int {
	n := 0
	for _, c := range b {
		if c != MarkEmpty {
			n++
		}
	}
	return n
}

// String renders the board as a 9-character string, space for empty cells.
// This is both the wire format and the storage format.
func (b Board) String() string {
	out := make([]byte, 0, Cells)
	for _, c := range b {
		out = append(out, c[0])
	}
	return string(out)
}

// Parse builds a board from its 9-character string form.
func Parse(s string) (Board, error) {
	if len(s) != Cells {
		return Board{}, fmt.Errorf("board string must be %d characters, got %d", Cells, len(s))
	}
	var b Board
	for i := 0; i < Cells; i++ {
		switch m := Mark(s[i : i+1]); m {
		case MarkEmpty, MarkX, MarkO:
			b[i] = m
		default:
			return Board{}, fmt.Errorf("invalid mark %q at cell %d", s[i:i+1], i)
		}
	}
	return b, nil
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Value implements driver.Valuer so a board can be written to a CHAR(9)
// column directly.
func (b Board) Value() (driver.Value, error) {
	return b.String(), nil
}

// Scan implements sql.Scanner for the same column.
func (b *Board) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Board", src)
	}
}
