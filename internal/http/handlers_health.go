package httpapi

import "net/http"

// HandleHealth returns API health status with bank and answer counts
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Questions: h.bank.Len(),
		Answers:   h.answers.Count(),
	}

	h.logger.Debug().Int("questions", resp.Questions).Int("answers", resp.Answers).Msg("health check")

	writeJSON(w, http.StatusOK, resp)
}

// HandleModules lists the distinct modules in first-appearance order
func (h *Handler) HandleModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ModulesResponse{Modules: h.bank.Modules()})
}
