package config

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// ScalingLaw lei de escala do intervalo adaptativo de re-amostragem
type ScalingLaw string

const (
	// ScalingLinear intervalo = sample_time * online_cpus
	ScalingLinear ScalingLaw = "linear"
	// ScalingQuadratic intervalo = sample_time * online_cpus^2
	ScalingQuadratic ScalingLaw = "quadratic"
)

// Valores padrão do governor
const (
	DefaultShiftAll       = 500
	DefaultShiftCPU       = 225
	DefaultShiftCPUTwo    = 0 // 0 = variante de tier único
	DefaultDownShift      = 100
	DefaultMinCPU         = 1
	DefaultMaxCPU         = 4
	DefaultSampleTime     = 20 // ms
	DefaultSamplingPeriod = 18
)

// Thresholds snapshot imutável dos tunáveis, lido pelo policy engine
// a cada ciclo de decisão
type Thresholds struct {
	ShiftAll       uint // carga média que liga todas as CPUs
	ShiftCPU       uint // threshold por CPU para ligar uma CPU (primeiro tier)
	ShiftCPUTwo    uint // segundo tier (online > 1); 0 desabilita
	DownShift      uint // threshold por CPU para desligar uma CPU
	MinCPU         uint
	MaxCPU         uint
	SampleTime     time.Duration
	SamplingPeriod uint
	Law            ScalingLaw
}

// Store guarda os tunáveis em runtime com escrita clampada.
// Escritas fora do range documentado são silenciosamente ignoradas
// (valor inalterado) e escritas iguais ao valor atual são no-ops,
// no estilo de escrita do sysfs.
type Store struct {
	mu sync.RWMutex

	shiftAll       uint
	shiftCPU       uint
	shiftCPUTwo    uint
	downShift      uint
	minCPU         uint
	maxCPU         uint
	sampleTimeMs   uint
	samplingPeriod uint
	law            ScalingLaw
}

// NewStore cria o store com os valores padrão
func NewStore() *Store {
	return &Store{
		shiftAll:       DefaultShiftAll,
		shiftCPU:       DefaultShiftCPU,
		shiftCPUTwo:    DefaultShiftCPUTwo,
		downShift:      DefaultDownShift,
		minCPU:         DefaultMinCPU,
		maxCPU:         DefaultMaxCPU,
		sampleTimeMs:   DefaultSampleTime,
		samplingPeriod: DefaultSamplingPeriod,
		law:            ScalingLinear,
	}
}

// Snapshot retorna uma cópia consistente dos tunáveis
func (s *Store) Snapshot() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Thresholds{
		ShiftAll:       s.shiftAll,
		ShiftCPU:       s.shiftCPU,
		ShiftCPUTwo:    s.shiftCPUTwo,
		DownShift:      s.downShift,
		MinCPU:         s.minCPU,
		MaxCPU:         s.maxCPU,
		SampleTime:     time.Duration(s.sampleTimeMs) * time.Millisecond,
		SamplingPeriod: s.samplingPeriod,
		Law:            s.law,
	}
}

// Param descreve um tunável exposto externamente, com seu range inclusivo
type Param struct {
	Name string `json:"name"`
	Min  uint   `json:"min"`
	Max  uint   `json:"max"`
}

// params tabela dos tunáveis numéricos expostos externamente
var params = map[string]Param{
	"shift_all":       {Name: "shift_all", Min: 0, Max: 600},
	"shift_cpu":       {Name: "shift_cpu", Min: 0, Max: 500},
	"shift_cpu_two":   {Name: "shift_cpu_two", Min: 0, Max: 500},
	"down_shift":      {Name: "down_shift", Min: 0, Max: 200},
	"min_cpu":         {Name: "min_cpu", Min: 1, Max: 4},
	"max_cpu":         {Name: "max_cpu", Min: 1, Max: 4},
	"sample_time":     {Name: "sample_time", Min: 1, Max: 500},
	"sampling_period": {Name: "sampling_period", Min: 1, Max: 500},
}

// ParamNames retorna os nomes dos tunáveis numéricos, ordenados
func ParamNames() []string {
	names := make([]string, 0, len(params)+1)
	for name := range params {
		names = append(names, name)
	}
	names = append(names, "scaling_law")
	sort.Strings(names)
	return names
}

// Describe retorna o descritor de um tunável numérico
func Describe(name string) (Param, bool) {
	p, ok := params[name]
	return p, ok
}

// Get retorna o valor atual de um tunável como string
func (s *Store) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "scaling_law" {
		return string(s.law), nil
	}

	field := s.fieldFor(name)
	if field == nil {
		return "", fmt.Errorf("unknown parameter: %s", name)
	}
	return strconv.FormatUint(uint64(*field), 10), nil
}

// Set aplica uma escrita a um tunável. Valores fora do range (ou não
// numéricos) são ignorados sem erro; o retorno indica se houve mudança.
func (s *Store) Set(name, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "scaling_law" {
		law := ScalingLaw(value)
		if law != ScalingLinear && law != ScalingQuadratic {
			return false, nil
		}
		if law == s.law {
			return false, nil
		}
		s.law = law
		return true, nil
	}

	p, ok := params[name]
	if !ok {
		return false, fmt.Errorf("unknown parameter: %s", name)
	}

	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		// escrita inválida é descartada na borda, não propagada
		return false, nil
	}

	val := uint(v)
	if val < p.Min || val > p.Max {
		return false, nil
	}

	field := s.fieldFor(name)
	if *field == val {
		return false, nil
	}
	*field = val
	return true, nil
}

// fieldFor mapeia nome → campo; chamar com lock adquirido
func (s *Store) fieldFor(name string) *uint {
	switch name {
	case "shift_all":
		return &s.shiftAll
	case "shift_cpu":
		return &s.shiftCPU
	case "shift_cpu_two":
		return &s.shiftCPUTwo
	case "down_shift":
		return &s.downShift
	case "min_cpu":
		return &s.minCPU
	case "max_cpu":
		return &s.maxCPU
	case "sample_time":
		return &s.sampleTimeMs
	case "sampling_period":
		return &s.samplingPeriod
	}
	return nil
}
