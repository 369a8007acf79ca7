package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/activity"
	"cpu-hotplug-manager/internal/governor"
)

// ControlHandler expõe status e os pontos de controle do governor
// (disable/enable, boost, suspend/resume)
type ControlHandler struct {
	gov      *governor.Governor
	activity *activity.ChannelSource // opcional, injeta eventos de boost
}

// NewControlHandler cria o handler de controle
func NewControlHandler(gov *governor.Governor, src *activity.ChannelSource) *ControlHandler {
	return &ControlHandler{gov: gov, activity: src}
}

// Status GET /api/v1/status: snapshot do estado do governor
func (h *ControlHandler) Status(c *gin.Context) {
	st := h.gov.Status()
	t := st.Thresholds

	c.JSON(http.StatusOK, gin.H{
		"running":      st.Running,
		"disabled":     st.Disabled,
		"paused":       st.Paused,
		"suspended":    st.Suspended,
		"online_cpus":  st.OnlineCPUs,
		"total_cpus":   st.TotalCPUs,
		"average_load": st.AverageLoad,
		"last_sample":  st.LastSample,
		"window_size":  st.WindowSize,
		"thresholds": gin.H{
			"shift_all":       t.ShiftAll,
			"shift_cpu":       t.ShiftCPU,
			"shift_cpu_two":   t.ShiftCPUTwo,
			"down_shift":      t.DownShift,
			"min_cpu":         t.MinCPU,
			"max_cpu":         t.MaxCPU,
			"sample_time_ms":  t.SampleTime.Milliseconds(),
			"sampling_period": t.SamplingPeriod,
			"scaling_law":     string(t.Law),
		},
	})
}

// disableRequest corpo do POST de disable
type disableRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// Disable POST /api/v1/control/disable: liga/desliga as transições
// automáticas. O retorno só chega depois que todos os timers pendentes
// foram cancelados.
func (h *ControlHandler) Disable(c *gin.Context) {
	var req disableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	h.gov.SetDisabled(*req.Disabled)

	st := h.gov.Status()
	c.JSON(http.StatusOK, gin.H{
		"disabled":    st.Disabled,
		"online_cpus": st.OnlineCPUs,
	})
}

// boostRequest corpo opcional do POST de boost
type boostRequest struct {
	Device string `json:"device"`
}

// Boost POST /api/v1/control/boost: injeta um evento de atividade.
// Com "device" no corpo o evento passa pelo filtro de categorias; sem
// corpo o boost é disparado diretamente.
func (h *ControlHandler) Boost(c *gin.Context) {
	var req boostRequest
	_ = c.ShouldBindJSON(&req)

	if req.Device != "" && h.activity != nil {
		accepted := h.activity.Notify(req.Device)
		c.JSON(http.StatusOK, gin.H{"accepted": accepted, "device": req.Device})
		return
	}

	h.gov.Boost()
	st := h.gov.Status()
	c.JSON(http.StatusOK, gin.H{"accepted": true, "online_cpus": st.OnlineCPUs})
}

// Suspend POST /api/v1/control/suspend: força o estado mínimo e
// congela o loop
func (h *ControlHandler) Suspend(c *gin.Context) {
	h.gov.OnSuspend()
	log.Info().Msg("Suspend requested via API")

	st := h.gov.Status()
	c.JSON(http.StatusOK, gin.H{
		"suspended":   st.Suspended,
		"online_cpus": st.OnlineCPUs,
	})
}

// Resume POST /api/v1/control/resume: sai do suspend e re-arma o loop
func (h *ControlHandler) Resume(c *gin.Context) {
	h.gov.OnResume()
	log.Info().Msg("Resume requested via API")

	st := h.gov.Status()
	c.JSON(http.StatusOK, gin.H{
		"suspended":   st.Suspended,
		"online_cpus": st.OnlineCPUs,
	})
}
