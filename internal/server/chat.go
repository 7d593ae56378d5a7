package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MadScientist85/Ai-Web-App/internal/auth"
	"github.com/MadScientist85/Ai-Web-App/internal/codegen"
	"github.com/MadScientist85/Ai-Web-App/internal/dispatch"
	"github.com/MadScientist85/Ai-Web-App/internal/history"
	"github.com/MadScientist85/Ai-Web-App/internal/project"
	"github.com/MadScientist85/Ai-Web-App/internal/provider"
	"github.com/MadScientist85/Ai-Web-App/internal/registry"
)

const historySaveTimeout = 5 * time.Second

type Generator interface {
	Generate(ctx context.Context, conv dispatch.Conversation) (*dispatch.Result, error)
}

// Catalog reports the configured providers.
type Catalog interface {
	ListOrdered() []registry.Provider
	IsConfigured(p registry.Provider) bool
	FirstConfigured() registry.Provider
}

type chatRequest struct {
	Messages     []provider.Message `json:"messages"`
	SystemPrompt string             `json:"systemPrompt"`
	MaxTokens    *int               `json:"maxTokens"`
	Temperature  *float64           `json:"temperature"`
	ProjectID    string             `json:"projectId"`
}

type chatResponse struct {
	Content  string        `json:"content"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Code     *codegen.Code `json:"code,omitempty"`
	Usage    usage         `json:"usage"`

	// ProjectUpdated reports that the extracted code was written to the
	// request's project.
	ProjectUpdated bool `json:"project_updated,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleUser, provider.RoleAssistant, provider.RoleSystem:
		default:
			writeError(w, http.StatusBadRequest, "invalid message role: "+m.Role)
			return
		}
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = codegen.SystemPrompt
	}
	if req.ProjectID != "" {
		if _, err := uuid.Parse(req.ProjectID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'projectId'")
			return
		}
	}

	requestID := auth.GetRequestID(ctx)
	ctx, span := h.tracer.Start(ctx, "server.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("request_id", requestID),
		attribute.Int("messages", len(req.Messages)),
	)

	var proj *project.Project
	if req.ProjectID != "" {
		p, err := h.projects.Get(ctx, userID, req.ProjectID)
		if err != nil {
			h.projectError(w, err, "Failed to fetch project")
			return
		}
		proj = p
	}

	genCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	res, err := h.gen.Generate(genCtx, dispatch.Conversation{
		Messages:     req.Messages,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		h.logger.Error().Err(err).
			Str("user_id", userID).
			Str("request_id", requestID).
			Msg("chat generation failed")
		writeError(w, http.StatusBadGateway, "Failed to generate response")
		return
	}
	span.SetAttributes(attribute.String("provider", res.ProviderName), attribute.String("model", res.ModelID))

	h.saveTurn(ctx, userID, requestID, req, res)

	resp := chatResponse{
		Content:  res.Content,
		Provider: res.ProviderName,
		Model:    res.ModelID,
		Usage:    usage{InputTokens: res.InputTokens, OutputTokens: res.OutputTokens},
	}
	if code, ok := codegen.Extract(res.Content); ok {
		resp.Code = &code
		if proj != nil {
			resp.ProjectUpdated = h.applyCode(ctx, userID, req.ProjectID, proj.Files, code)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// applyCode writes the extracted files into the project, keeping files the
// reply did not touch.
func (h *Handler) applyCode(ctx context.Context, userID, projectID string, current []project.File, code codegen.Code) bool {
	files := project.MergeFiles(current, code.Files())
	if _, err := h.projects.Update(ctx, userID, projectID, project.Update{Files: &files}); err != nil {
		h.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("project_id", projectID).
			Msg("failed to save generated files")
		return false
	}
	return true
}

// saveTurn stores the latest user message and the reply in the background.
func (h *Handler) saveTurn(ctx context.Context, userID, requestID string, req chatRequest, res *dispatch.Result) {
	var msgs []*history.Message
	if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == provider.RoleUser {
		msgs = append(msgs, &history.Message{
			UserID:    userID,
			ProjectID: req.ProjectID,
			RequestID: requestID,
			Role:      provider.RoleUser,
			Content:   req.Messages[n-1].Content,
		})
	}
	msgs = append(msgs, &history.Message{
		UserID:    userID,
		ProjectID: req.ProjectID,
		RequestID: requestID,
		Role:      provider.RoleAssistant,
		Content:   res.Content,
		Provider:  res.ProviderName,
		Model:     res.ModelID,
	})

	bg := context.WithoutCancel(ctx)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		saveCtx, cancel := context.WithTimeout(bg, historySaveTimeout)
		defer cancel()
		for _, m := range msgs {
			if err := h.history.Save(saveCtx, m); err != nil {
				h.logger.Warn().Err(err).
					Str("user_id", userID).
					Str("request_id", requestID).
					Str("role", m.Role).
					Msg("failed to save chat message")
				return
			}
		}
	}()
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter, ok := parseHistoryFilter(w, r)
	if !ok {
		return
	}

	msgs, err := h.history.History(ctx, userID, filter)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load chat history")
		writeError(w, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) HandleHistoryExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter, ok := parseHistoryFilter(w, r)
	if !ok {
		return
	}

	var name string
	if filter.ProjectID != "" {
		p, err := h.projects.Get(ctx, userID, filter.ProjectID)
		if err != nil {
			h.projectError(w, err, "Failed to export chat history")
			return
		}
		name = p.Name
	}

	msgs, err := h.history.History(ctx, userID, filter)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load chat history")
		writeError(w, http.StatusInternalServerError, "Failed to export chat history")
		return
	}

	export := history.NewExport(name, msgs, h.now())
	attachment(w, export.Filename(), export)
}

func parseHistoryFilter(w http.ResponseWriter, r *http.Request) (history.Filter, bool) {
	f := history.Filter{
		ProjectID: r.URL.Query().Get("project_id"),
		Limit:     history.DefaultLimit,
	}
	if f.ProjectID != "" {
		if _, err := uuid.Parse(f.ProjectID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'project_id'")
			return f, false
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit' (use a positive integer)")
			return f, false
		}
		f.Limit = n
	}
	return f, true
}

type providerStatus struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Family     string `json:"family"`
	Priority   int    `json:"priority"`
	Configured bool   `json:"configured"`
}

func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	ordered := h.catalog.ListOrdered()
	out := make([]providerStatus, 0, len(ordered))
	for _, p := range ordered {
		out = append(out, providerStatus{
			Name:       p.Name,
			Model:      p.ModelID,
			Family:     p.Family,
			Priority:   p.Priority,
			Configured: h.catalog.IsConfigured(p),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers":        out,
		"first_configured": h.catalog.FirstConfigured().Name,
	})
}

func (h *Handler) projectError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, project.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	h.logger.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
