package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/config"
	"cpu-hotplug-manager/internal/governor"
)

// ParamsHandler expõe os tunáveis do governor via HTTP, com a mesma
// semântica de escrita de uma interface sysfs
type ParamsHandler struct {
	gov *governor.Governor
}

// NewParamsHandler cria o handler de parâmetros
func NewParamsHandler(gov *governor.Governor) *ParamsHandler {
	return &ParamsHandler{gov: gov}
}

// paramView um tunável com valor atual e range
type paramView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Min   *uint  `json:"min,omitempty"`
	Max   *uint  `json:"max,omitempty"`
}

// List GET /api/v1/params: todos os tunáveis com valor e range
func (h *ParamsHandler) List(c *gin.Context) {
	store := h.gov.Params()

	views := make([]paramView, 0, len(config.ParamNames()))
	for _, name := range config.ParamNames() {
		value, err := store.Get(name)
		if err != nil {
			continue
		}
		view := paramView{Name: name, Value: value}
		if p, ok := config.Describe(name); ok {
			view.Min = &p.Min
			view.Max = &p.Max
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"params": views})
}

// Get GET /api/v1/params/:name: valor atual de um tunável
func (h *ParamsHandler) Get(c *gin.Context) {
	name := c.Param("name")

	value, err := h.gov.Params().Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
}

// setParamRequest corpo do PUT de parâmetro
type setParamRequest struct {
	Value string `json:"value" binding:"required"`
}

// Set PUT /api/v1/params/:name: escreve um tunável. Valores fora do
// range são ignorados (changed=false), nunca erro: a semântica de
// escrita é a do sysfs, descartar na borda.
func (h *ParamsHandler) Set(c *gin.Context) {
	name := c.Param("name")

	var req setParamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	changed, err := h.gov.Params().Set(name, req.Value)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if changed {
		log.Info().Str("param", name).Str("value", req.Value).Msg("Parameter updated")
	}

	value, _ := h.gov.Params().Get(name)
	c.JSON(http.StatusOK, gin.H{
		"name":    name,
		"value":   value,
		"changed": changed,
	})
}
