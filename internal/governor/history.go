package governor

// History buffer circular de amostras de carga usado para calcular a
// média móvel sobre a janela de amostragem. O cursor aponta sempre para
// o próximo slot a sobrescrever. A média soma todos os slots, incluindo
// os zeros ainda não preenchidos no startup, o que enviesa as primeiras
// médias para "carga baixa" e casa com o estado inicial Paused.
type History struct {
	slots  []uint64
	cursor int
}

// NewHistory cria o buffer com a capacidade dada (slots zerados)
func NewHistory(capacity uint) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{slots: make([]uint64, capacity)}
}

// Record escreve a amostra no slot do cursor e avança módulo capacidade
func (h *History) Record(sample uint64) {
	h.slots[h.cursor] = sample
	h.cursor++
	if h.cursor == len(h.slots) {
		h.cursor = 0
	}
}

// Average soma todos os slots e divide pela capacidade (divisão inteira)
func (h *History) Average() uint64 {
	var sum uint64
	for _, s := range h.slots {
		sum += s
	}
	return sum / uint64(len(h.slots))
}

// Capacity retorna o tamanho da janela
func (h *History) Capacity() uint {
	return uint(len(h.slots))
}

// Resize redimensiona a janela preservando as amostras mais recentes
// que couberem; slots extras ficam zerados (mesmo viés do startup).
func (h *History) Resize(capacity uint) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == uint(len(h.slots)) {
		return
	}

	old := len(h.slots)
	keep := old
	if int(capacity) < keep {
		keep = int(capacity)
	}

	// coleta as keep amostras mais recentes, da mais antiga para a mais nova
	recent := make([]uint64, 0, keep)
	for i := keep; i > 0; i-- {
		idx := (h.cursor - i + old*2) % old
		recent = append(recent, h.slots[idx])
	}

	h.slots = make([]uint64, capacity)
	copy(h.slots, recent)
	h.cursor = len(recent) % int(capacity)
}
