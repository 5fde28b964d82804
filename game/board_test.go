package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Apply(t *testing.T) {
	b := NewBoard()

	applied, err := b.Apply(4, MarkX)
	require.NoError(t, err)
	require.Equal(t, MarkX, applied[4])

	// The receiver is a value, the original board stays empty.
	require.Equal(t, MarkEmpty, b[4])

	_, err = applied.Apply(4, MarkO)
	require.ErrorIs(t, err, ErrInvalidPosition)

	for _, index := range []int{-1, 9, 42} {
		_, err = b.Apply(index, MarkX)
		require.ErrorIs(t, err, ErrInvalidPosition, "index %d", index)
	}
}

func TestBoard_Outcome_AllWinLines(t *testing.T) {
	for _, mark := range []Mark{MarkX, MarkO} {
		for _, line := range winLines {
			b := NewBoard()
			for _, index := range line {
				b[index] = mark
			}

			result, winner := b.Outcome()
			require.Equal(t, ResultWin, result, "line %v", line)
			require.Equal(t, mark, winner, "line %v", line)
		}
	}
}

func TestBoard_Outcome_Draw(t *testing.T) {
	// X O X / X O O / O X X - full board, no line for either mark.
	b, err := Parse("XOXXOOOXX")
	require.NoError(t, err)

	result, winner := b.Outcome()
	require.Equal(t, ResultDraw, result)
	require.Equal(t, MarkEmpty, winner)
}

func TestBoard_Outcome_None(t *testing.T) {
	b := NewBoard()

	result, winner := b.Outcome()
	require.Equal(t, ResultNone, result)
	require.Equal(t, MarkEmpty, winner)

	b[0] = MarkX
	b[4] = MarkO
	result, _ = b.Outcome()
	require.Equal(t, ResultNone, result)
}

func TestBoard_Outcome_TotalOverArbitraryBoards(t *testing.T) {
	// Outcome must not panic or misbehave on unreachable boards either.
	rng := rand.New(rand.NewSource(1))
	marks := []Mark{MarkEmpty, MarkX, MarkO}

	for i := 0; i < 5000; i++ {
		var b Board
		for c := range b {
			b[c] = marks[rng.Intn(len(marks))]
		}

		result, winner := b.Outcome()
		switch result {
		case ResultWin:
			assert.Contains(t, []Mark{MarkX, MarkO}, winner)
		case ResultDraw:
			assert.Equal(t, Cells, b.Occupied())
			assert.Equal(t, MarkEmpty, winner)
		case ResultNone:
			assert.Equal(t, MarkEmpty, winner)
		default:
			t.Fatalf("unexpected result %v", result)
		}
	}
}

func hasLine(b Board, mark Mark) bool {
	for _, line := range winLines {
		if b[line[0]] == mark && b[line[1]] == mark && b[line[2]] == mark {
			return true
		}
	}
	return false
}

func TestBoard_LegalGamesNeverProduceTwoWinners(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		b := NewBoard()
		mark := MarkX

		for {
			result, _ := b.Outcome()
			if result != ResultNone {
				break
			}

			var empty []int
			for c, m := range b {
				if m == MarkEmpty {
					empty = append(empty, c)
				}
			}

			var err error
			b, err = b.Apply(empty[rng.Intn(len(empty))], mark)
			require.NoError(t, err)

			if mark == MarkX {
				mark = MarkO
			} else {
				mark = MarkX
			}
		}

		require.False(t, hasLine(b, MarkX) && hasLine(b, MarkO),
			"board %q has winning lines for both marks", b.String())
	}
}

func TestBoard_StringRoundTrip(t *testing.T) {
	b := NewBoard()
	b[0] = MarkX
	b[4] = MarkO
	b[8] = MarkX

	require.Equal(t, "X   O   X", b.String())

	parsed, err := Parse(b.String())
	require.NoError(t, err)
	require.Equal(t, b, parsed)

	_, err = Parse("XO")
	require.Error(t, err)

	_, err = Parse("Z        ")
	require.Error(t, err)
}
