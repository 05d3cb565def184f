// Package server exposes the publishing pipeline and the published
// curriculum over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/curriculum"
)

// PublishResponse is the wire shape of a publish or dry-run outcome.
type PublishResponse struct {
	Success        bool               `json:"success"`
	VersionID      string             `json:"versionId,omitempty"`
	VersionNumber  int                `json:"versionNumber,omitempty"`
	PublishedAt    string             `json:"publishedAt,omitempty"`
	Counts         *curriculum.Counts `json:"counts,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Errors         []string           `json:"errors,omitempty"`
	WarningDetails []curriculum.Issue `json:"warningDetails,omitempty"`
	ErrorDetails   []curriculum.Issue `json:"errorDetails,omitempty"`
}

// CurrentResponse is a published version together with its export snapshot.
type CurrentResponse struct {
	Version curriculum.Version `json:"version"`
	Export  json.RawMessage    `json:"export"`
}

// New builds the fiber app.
func New(pub *curriculum.Publisher, store curriculum.VersionStore, log logr.Logger) *fiber.App {
	app := fiber.New()
	h := &handler{pub: pub, store: store, log: log}

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ── Publishing ────────────────────────────────────────────────────
	app.Post("/publish", h.publish)
	app.Post("/graphs/:id/validate", h.validate)

	// ── Published curriculum ──────────────────────────────────────────
	app.Get("/graphs/:id/versions", h.listVersions)
	app.Get("/graphs/:id/current", h.current)
	app.Get("/versions/:id", h.getVersion)
	app.Get("/versions/:id/nodes", h.listNodes)
	app.Get("/versions/:id/edges", h.listEdges)

	return app
}

type handler struct {
	pub   *curriculum.Publisher
	store curriculum.VersionStore
	log   logr.Logger
}

func (h *handler) publish(c fiber.Ctx) error {
	var req curriculum.PublishRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(PublishResponse{Errors: []string{"invalid body"}})
	}

	res, err := h.pub.Publish(c.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == 500 {
			h.log.Error(err, "publish failed", "graphId", req.GraphID)
		}
		out := toResponse(res)
		if !errors.Is(err, curriculum.ErrValidationFailed) {
			out.Errors = append(out.Errors, err.Error())
		}
		return c.Status(status).JSON(out)
	}
	return c.JSON(toResponse(res))
}

func (h *handler) validate(c fiber.Ctx) error {
	res, err := h.pub.Check(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *handler) listVersions(c fiber.Ctx) error {
	versions, err := h.store.ListVersions(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(versions)
}

func (h *handler) current(c fiber.Ctx) error {
	v, err := h.store.CurrentVersion(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.store.GetExport(c.Context(), v.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(CurrentResponse{Version: *v, Export: snap})
}

func (h *handler) getVersion(c fiber.Ctx) error {
	v, err := h.store.GetVersion(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(v)
}

func (h *handler) listNodes(c fiber.Ctx) error {
	if _, err := h.store.GetVersion(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	nodes, err := h.store.ListNodes(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(nodes)
}

func (h *handler) listEdges(c fiber.Ctx) error {
	if _, err := h.store.GetVersion(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	edges, err := h.store.ListEdges(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(edges)
}

func (h *handler) fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == 500 {
		h.log.Error(err, "request failed", "path", c.Path())
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, curriculum.ErrInvalidRequest),
		errors.Is(err, curriculum.ErrMalformedGraph),
		errors.Is(err, curriculum.ErrValidationFailed):
		return 400
	case errors.Is(err, curriculum.ErrGraphNotFound),
		errors.Is(err, curriculum.ErrVersionNotFound):
		return 404
	}
	return 500
}

func toResponse(res *curriculum.PublishResult) PublishResponse {
	if res == nil {
		return PublishResponse{}
	}
	counts := res.Counts
	out := PublishResponse{
		Success:        res.Success,
		VersionID:      res.VersionID,
		VersionNumber:  res.VersionNumber,
		Counts:         &counts,
		Warnings:       curriculum.IssueStrings(res.Warnings),
		Errors:         curriculum.IssueStrings(res.Errors),
		WarningDetails: res.Warnings,
		ErrorDetails:   res.Errors,
	}
	if res.PublishedAt != nil {
		out.PublishedAt = res.PublishedAt.UTC().Format(time.RFC3339)
	}
	return out
}
