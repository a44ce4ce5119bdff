package rule

import (
	"ZapDesk/entity"
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	CreateRule(ctx context.Context, r *entity.AssignmentRule) (*entity.AssignmentRule, error)
	ListRules(ctx context.Context) ([]entity.AssignmentRule, error)
	SetRuleActive(ctx context.Context, id string, active bool) error
	DeleteRule(ctx context.Context, id string) error
	AutoAssign(ctx context.Context, conversationID, ruleID string) (string, error)
}

type CreateRequest struct {
	Name             string   `json:"name"`
	InstanceID       string   `json:"instance_id"`
	RuleType         string   `json:"rule_type"`
	FixedAgentID     *string  `json:"fixed_agent_id"`
	RoundRobinAgents []string `json:"round_robin_agents"`
	IsActive         bool     `json:"is_active"`
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.rule")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		rule, err := handler.CreateRule(r.Context(), &entity.AssignmentRule{
			Name:             req.Name,
			InstanceID:       req.InstanceID,
			RuleType:         req.RuleType,
			FixedAgentID:     req.FixedAgentID,
			RoundRobinAgents: req.RoundRobinAgents,
			IsActive:         req.IsActive,
		})
		if err != nil {
			logger.Error("failed to create rule", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		render.JSON(w, r, response.Ok(rule))
	}
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.rule")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		rules, err := handler.ListRules(r.Context())
		if err != nil {
			logger.Error("failed to list rules", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list rules"))
			return
		}

		render.JSON(w, r, response.Ok(rules))
	}
}

type ActivateRequest struct {
	Active bool `json:"active"`
}

func SetActive(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.rule")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ActivateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		err := handler.SetRuleActive(r.Context(), chi.URLParam(r, "id"), req.Active)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Rule not found"))
			return
		case err != nil:
			logger.Error("failed to toggle rule", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to toggle rule"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.rule")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		err := handler.DeleteRule(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Rule not found"))
			return
		case err != nil:
			logger.Error("failed to delete rule", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to delete rule"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

type RouteRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Route assigns a conversation through a rule and returns the chosen
// agent.
func Route(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.rule")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req RouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.ConversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("conversation_id is required"))
			return
		}

		agent, err := handler.AutoAssign(r.Context(), req.ConversationID, chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Rule or conversation not found"))
			return
		case err != nil:
			logger.Error("failed to route conversation", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{"assigned_to": agent}))
	}
}
