package governor

// Flags bits de controle do governor
type Flags uint8

const (
	// FlagDisabled suprime todas as transições automáticas
	FlagDisabled Flags = 1 << 0
	// FlagPaused suprime transições mas a amostragem continua
	FlagPaused Flags = 1 << 1
	// FlagSuspend sistema em suspend; loop parado em estado mínimo
	FlagSuspend Flags = 1 << 3
)

// Has retorna se o bit está setado
func (f Flags) Has(bit Flags) bool {
	return f&bit != 0
}

// Set liga o bit
func (f *Flags) Set(bit Flags) {
	*f |= bit
}

// Clear desliga o bit
func (f *Flags) Clear(bit Flags) {
	*f &^= bit
}
