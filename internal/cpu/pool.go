package cpu

// Pool representa o conjunto de unidades de CPU controláveis pelo governor.
// O estado online/offline é autoritativo na implementação (sysfs em produção),
// nunca duplicado em memória.
type Pool interface {
	// Count retorna o número total de CPUs presentes (online ou não)
	Count() int

	// IsOnline retorna se a CPU de índice cpu está online
	IsOnline(cpu int) (bool, error)

	// SetOnline coloca a CPU online (true) ou offline (false).
	// A CPU 0 é a unidade primária e nunca pode ser desligada.
	SetOnline(cpu int, online bool) error

	// OnlineCount retorna quantas CPUs estão online no momento
	OnlineCount() int
}
