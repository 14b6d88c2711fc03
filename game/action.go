package game

// Action packs (block, row, col) as block*1000 + row*10 + col.
type Action int

const NoAction Action = -1

// ActionSpace is the size of the dense action index used by the approximators.
const ActionSpace = TraySize * BoardSize * BoardSize

func EncodeAction(block, row, col int) Action {
	return Action(block*1000 + row*10 + col)
}

// DecodeAction is the exact inverse of EncodeAction.
func DecodeAction(a Action) (block, row, col int) {
	id := int(a)
	block = id / 1000
	rest := id % 1000
	return block, rest / 10, rest % 10
}

func (a Action) Decode() (block, row, col int) {
	return DecodeAction(a)
}

// Index maps the action onto [0, ActionSpace), or -1 when it has no dense slot.
func (a Action) Index() int {
	if a < 0 {
		return -1
	}
	block, row, col := a.Decode()
	if block >= TraySize || !inBounds(row, col) {
		return -1
	}
	return block*BoardSize*BoardSize + row*BoardSize + col
}

// ActionAt is the inverse of Action.Index.
func ActionAt(index int) Action {
	if index < 0 || index >= ActionSpace {
		return NoAction
	}
	block := index / (BoardSize * BoardSize)
	pos := index % (BoardSize * BoardSize)
	return EncodeAction(block, pos/BoardSize, pos%BoardSize)
}
