package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
)

// canManageRules: only the vet who owns the schedule, or an admin.
func canManageRules(actor auth.Actor, vetID uuid.UUID) bool {
	return actor.IsAdmin() || (actor.Role == auth.RoleVeterinarian && actor.UserID == vetID)
}

func (h *handlers) createRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	vetID, ok := pathUUID(w, r, "vetID")
	if !ok {
		return
	}
	if !canManageRules(actor, vetID) {
		h.fail(w, r, apperrors.Forbidden("cannot manage the schedule of veterinarian %s", vetID))
		return
	}

	var req CreateRuleRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	day, _ := schedule.ParseDayOfWeek(req.DayOfWeek)
	rule, err := h.schedule.CreateRule(r.Context(), schedule.NewRule{
		VeterinarianID:      vetID,
		DayOfWeek:           day,
		StartTime:           calendar.MustTimeOfDay(req.StartTime),
		EndTime:             calendar.MustTimeOfDay(req.EndTime),
		SlotDurationMinutes: req.SlotDurationMinutes,
		MaxAppointments:     req.MaxAppointments,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *handlers) listRules(w http.ResponseWriter, r *http.Request) {
	vetID, ok := pathUUID(w, r, "vetID")
	if !ok {
		return
	}
	rules, err := h.schedule.GetRules(r.Context(), vetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *handlers) updateRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	vetID, ok := pathUUID(w, r, "vetID")
	if !ok {
		return
	}
	ruleID, ok := pathUUID(w, r, "ruleID")
	if !ok {
		return
	}
	if !canManageRules(actor, vetID) {
		h.fail(w, r, apperrors.Forbidden("cannot manage the schedule of veterinarian %s", vetID))
		return
	}

	var req UpdateRuleRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	patch := schedule.RulePatch{
		SlotDurationMinutes: req.SlotDurationMinutes,
		MaxAppointments:     req.MaxAppointments,
		IsActive:            req.IsActive,
	}
	if req.DayOfWeek != nil {
		day, _ := schedule.ParseDayOfWeek(*req.DayOfWeek)
		patch.DayOfWeek = &day
	}
	if req.StartTime != nil {
		start := calendar.MustTimeOfDay(*req.StartTime)
		patch.StartTime = &start
	}
	if req.EndTime != nil {
		end := calendar.MustTimeOfDay(*req.EndTime)
		patch.EndTime = &end
	}

	rule, err := h.schedule.UpdateRule(r.Context(), ruleID, vetID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *handlers) deleteRule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	vetID, ok := pathUUID(w, r, "vetID")
	if !ok {
		return
	}
	ruleID, ok := pathUUID(w, r, "ruleID")
	if !ok {
		return
	}
	if !canManageRules(actor, vetID) {
		h.fail(w, r, apperrors.Forbidden("cannot manage the schedule of veterinarian %s", vetID))
		return
	}

	if err := h.schedule.DeleteRule(r.Context(), ruleID, vetID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) availabilityForDate(w http.ResponseWriter, r *http.Request) {
	vetID, ok := pathUUID(w, r, "vetID")
	if !ok {
		return
	}
	date, err := calendar.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(apperrors.KindValidation), "date must be YYYY-MM-DD")
		return
	}

	avail, err := h.availability.Compute(r.Context(), vetID, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}
