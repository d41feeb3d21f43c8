package generation

import "fmt"

// ScriptModel replays a fixed continuation per row, then repeats the final
// scripted token. It stands in for a real model in tests and lets the CLI
// demonstrate stopping behaviour on known text.
type ScriptModel struct {
	Script [][]int
	pos    []int
}

func (m *ScriptModel) Next(row int, _ []int) (int, error) {
	if row < 0 || row >= len(m.Script) {
		return 0, fmt.Errorf("no script for row %d", row)
	}
	script := m.Script[row]
	if len(script) == 0 {
		return 0, fmt.Errorf("empty script for row %d", row)
	}
	if m.pos == nil {
		m.pos = make([]int, len(m.Script))
	}
	at := m.pos[row]
	if at >= len(script) {
		return script[len(script)-1], nil
	}
	m.pos[row]++
	return script[at], nil
}

// ToyModel emits deterministic pseudo-random ids derived from the trailing
// context. It exists to exercise the criteria at benchmark scale without a
// real model behind them.
type ToyModel struct {
	VocabSize int
	Seed      int64
}

func (m *ToyModel) Next(row int, ids []int) (int, error) {
	if m.VocabSize <= 0 {
		return 0, fmt.Errorf("toy model needs a positive vocab size")
	}
	h := uint64(m.Seed)*0x9e3779b97f4a7c15 + uint64(row+1)*0xbf58476d1ce4e5b9
	tail := ids
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	for _, id := range tail {
		h ^= uint64(id) + 0x94d049bb133111eb
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
	}
	return int(h % uint64(m.VocabSize)), nil
}
