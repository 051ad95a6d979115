package http

import (
	"context"
	_ "embed"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/melih/unbound-panel/internal/adapters/metrics"
	"github.com/melih/unbound-panel/internal/core/domain"
	"github.com/melih/unbound-panel/internal/core/ports"
)

//go:embed web/index.html
var indexPage []byte

const (
	msgNoContent      = "No content provided"
	msgConfigNotFound = "unbound.conf not found"
	msgBackupNotFound = "Backup file not found"
	msgNoDocker       = "Docker socket not available"
)

// HandlerOptions carries the handler's collaborators. Resolver and Prober
// may be nil: without a resolver the panel still edits files but cannot
// restart anything, and without a prober the status check goes straight to
// the container runtime.
type HandlerOptions struct {
	Store    ports.ConfigStore
	Resolver ports.ResolverService
	Prober   ports.Prober
	Metrics  *metrics.Collector
	Log      logrus.FieldLogger
}

type PanelHandler struct {
	store    ports.ConfigStore
	resolver ports.ResolverService
	prober   ports.Prober
	metrics  *metrics.Collector
	log      logrus.FieldLogger
}

func NewPanelHandler(opts HandlerOptions) *PanelHandler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PanelHandler{
		store:    opts.Store,
		resolver: opts.Resolver,
		prober:   opts.Prober,
		metrics:  opts.Metrics,
		log:      log,
	}
}

// Routes mounts the panel endpoints on r.
func (h *PanelHandler) Routes(r fiber.Router) {
	r.Get("/", h.Index)

	api := r.Group("/api")
	api.Get("/status", h.GetStatus)
	api.Get("/get-config", h.GetConfig)
	api.Post("/apply-config", h.ApplyConfig)
	api.Post("/restore-default", h.RestoreDefault)
}

func (h *PanelHandler) Index(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexPage)
}

func (h *PanelHandler) GetStatus(c *fiber.Ctx) error {
	status := h.status(c.Context())
	if h.metrics != nil {
		h.metrics.ObserveStatus(status)
	}
	return c.JSON(status)
}

func (h *PanelHandler) status(ctx context.Context) domain.Status {
	if h.prober != nil {
		if err := h.prober.Probe(ctx); err != nil {
			h.log.WithError(err).Debug("resolver probe failed")
			return domain.Stopped()
		}
	}
	if h.resolver == nil {
		return domain.Stopped()
	}
	return h.resolver.Status(ctx)
}

func (h *PanelHandler) GetConfig(c *fiber.Ctx) error {
	content, err := h.store.Read(c.Context())
	if errors.Is(err, ports.ErrConfigNotFound) {
		return errorJSON(c, fiber.StatusNotFound, msgConfigNotFound)
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   content,
	})
}

type ApplyConfigRequest struct {
	Content string `json:"content"`
}

func (h *PanelHandler) ApplyConfig(c *fiber.Ctx) error {
	var req ApplyConfigRequest
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return errorJSON(c, fiber.StatusBadRequest, msgNoContent)
	}

	err := h.applyConfig(c.Context(), req.Content)
	h.observeAction("apply", err)
	if err != nil {
		return h.actionError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Config applied and Unbound restarted",
	})
}

func (h *PanelHandler) applyConfig(ctx context.Context, content string) error {
	if err := h.store.Write(ctx, content); err != nil {
		return err
	}
	return h.restart(ctx)
}

func (h *PanelHandler) RestoreDefault(c *fiber.Ctx) error {
	err := h.restoreDefault(c.Context())
	h.observeAction("restore", err)
	if errors.Is(err, ports.ErrBackupNotFound) {
		return errorJSON(c, fiber.StatusNotFound, msgBackupNotFound)
	}
	if err != nil {
		return h.actionError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Reverted and restarted",
	})
}

func (h *PanelHandler) restoreDefault(ctx context.Context) error {
	if err := h.store.Restore(ctx); err != nil {
		return err
	}
	return h.restart(ctx)
}

func (h *PanelHandler) restart(ctx context.Context) error {
	if h.resolver == nil {
		return ports.ErrRuntimeUnavailable
	}
	return h.resolver.Restart(ctx)
}

func (h *PanelHandler) actionError(c *fiber.Ctx, err error) error {
	h.log.WithError(err).WithField("path", c.Path()).Error("control action failed")
	if errors.Is(err, ports.ErrRuntimeUnavailable) {
		return errorJSON(c, fiber.StatusInternalServerError, msgNoDocker)
	}
	return errorJSON(c, fiber.StatusInternalServerError, err.Error())
}

func (h *PanelHandler) observeAction(action string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveAction(action, err)
	}
}

func errorJSON(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
