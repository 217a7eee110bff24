package webserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stake-plus/finapp-discord/src/router"
)

type commandsHandler struct {
	dispatcher *router.Dispatcher
}

type operationView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit"`
}

type commandView struct {
	Command          string          `json:"command"`
	Label            string          `json:"label"`
	Description      string          `json:"description,omitempty"`
	DefaultOperation string          `json:"default_operation,omitempty"`
	Operations       []operationView `json:"operations"`
}

type invokeResponse struct {
	InvocationID string `json:"invocation_id"`
	Outcome      string `json:"outcome"`
	Operation    string `json:"operation,omitempty"`
	Reply        string `json:"reply"`
}

func (h commandsHandler) List(c *gin.Context) {
	regs := h.dispatcher.Registry().Commands()
	out := make([]commandView, 0, len(regs))
	for _, reg := range regs {
		view := commandView{
			Command:          reg.Command,
			Label:            reg.Label,
			Description:      reg.Description,
			DefaultOperation: reg.DefaultOperation,
			Operations:       make([]operationView, 0, len(reg.Operations)),
		}
		for _, op := range reg.Operations {
			view.Operations = append(view.Operations, operationView{Name: op.Name, Description: op.Description, Unit: op.Unit.String()})
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"commands": out})
}

// Invoke runs a command through the same dispatcher the Discord gateway
// uses. The reply the dispatcher would have posted is returned in the body.
func (h commandsHandler) Invoke(c *gin.Context) {
	var reply string
	ev := router.Event{
		ID:        uuid.NewString(),
		Source:    "http",
		User:      c.GetString(subjectKey),
		Command:   c.Param("command"),
		Operation: c.Param("operation"),
		FollowUp: func(_ context.Context, content string) error {
			reply = content
			return nil
		},
	}

	outcome := h.dispatcher.Dispatch(c.Request.Context(), ev)
	c.JSON(statusFor(outcome.Kind), invokeResponse{
		InvocationID: ev.ID,
		Outcome:      outcome.Kind.String(),
		Operation:    outcome.Operation,
		Reply:        reply,
	})
}

func statusFor(k router.Kind) int {
	switch k {
	case router.KindSuccess:
		return http.StatusOK
	case router.KindUnknownCommand:
		return http.StatusNotFound
	case router.KindUnsupportedOperation:
		return http.StatusBadRequest
	case router.KindResolutionFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
