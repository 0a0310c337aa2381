// Package api exposes the canvas, the workflow store and the simulator over HTTP.
package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/simulate"
)

// Handler serves one editing session.
type Handler struct {
	canvas   *flow.Canvas
	store    flow.Store
	sim      *simulate.Simulator
	board    *simulate.Board
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler returns a handler serving canvas, store and sim. A nil logger disables logging.
func NewHandler(canvas *flow.Canvas, store flow.Store, sim *simulate.Simulator, board *simulate.Board, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		canvas:   canvas,
		store:    store,
		sim:      sim,
		board:    board,
		validate: validator.New(),
		logger:   logger,
	}
}

// New builds the fiber app with every route registered.
func New(h *Handler) *fiber.App {
	app := fiber.New()
	h.Register(app)
	return app
}

type dropRequest struct {
	Type     string        `json:"type"`
	Position flow.Position `json:"position"`
}

type moveRequest struct {
	Position flow.Position `json:"position"`
}

type connectRequest struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// Register mounts the routes on app.
func (h *Handler) Register(app *fiber.App) {
	// ── Schema ────────────────────────────────────────────────────────
	app.Get("/types", func(c fiber.Ctx) error {
		return c.JSON(flow.NodeTypes())
	})

	app.Post("/schema", func(c fiber.Ctx) error {
		if err := h.store.CreateSchema(c.Context()); err != nil {
			return h.internal(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := h.store.DropSchema(c.Context()); err != nil {
			return h.internal(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Canvas ────────────────────────────────────────────────────────
	app.Get("/graph", func(c fiber.Ctx) error {
		return c.JSON(h.canvas.Snapshot())
	})

	app.Delete("/graph", func(c fiber.Ctx) error {
		h.canvas.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/graph/nodes", func(c fiber.Ctx) error {
		var req dropRequest
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		n, ok := h.canvas.OnDrop(req.Type, req.Position)
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Status(fiber.StatusCreated).JSON(n)
	})

	app.Put("/graph/nodes/:id", func(c fiber.Ctx) error {
		var data flow.NodeData
		if err := h.bind(c, &data); err != nil {
			return badRequest(c, err)
		}
		h.canvas.OnChange(c.Params("id"), data)
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Patch("/graph/nodes/:id/position", func(c fiber.Ctx) error {
		var req moveRequest
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		h.canvas.Move(c.Params("id"), req.Position)
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Delete("/graph/nodes/:id", func(c fiber.Ctx) error {
		h.canvas.OnDelete(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/graph/edges", func(c fiber.Ctx) error {
		var req connectRequest
		if err := h.bind(c, &req); err != nil {
			return badRequest(c, err)
		}
		e, ok := h.canvas.OnConnect(req.Source, req.Target, req.SourceHandle, req.TargetHandle)
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	app.Delete("/graph/edges/:id", func(c fiber.Ctx) error {
		h.canvas.Disconnect(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Post("/graph/commands", func(c fiber.Ctx) error {
		var cmd flow.Command
		if err := h.bind(c, &cmd); err != nil {
			return badRequest(c, err)
		}
		h.canvas.Dispatch(cmd)
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ── Document ──────────────────────────────────────────────────────
	app.Get("/graph/export", func(c fiber.Ctx) error {
		return c.JSON(h.canvas.Export())
	})

	app.Post("/graph/import", func(c fiber.Ctx) error {
		if err := h.canvas.Import(c.Body()); err != nil {
			return badRequest(c, err)
		}
		return c.JSON(h.canvas.Snapshot())
	})

	app.Get("/graph/lint", func(c fiber.Ctx) error {
		problems := flow.CheckFormulas(h.canvas.Snapshot())
		if problems == nil {
			problems = []flow.FormulaError{}
		}
		return c.JSON(fiber.Map{"problems": problems})
	})

	// ── Saved workflows ───────────────────────────────────────────────
	app.Get("/workflows", func(c fiber.Ctx) error {
		ids, err := h.store.ListWorkflows(c.Context())
		if err != nil {
			return h.internal(c, err)
		}
		return c.JSON(ids)
	})

	app.Post("/workflows", func(c fiber.Ctx) error {
		id := uuid.NewString()
		if err := h.store.SaveWorkflow(c.Context(), id, h.canvas.Snapshot()); err != nil {
			return h.internal(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	app.Put("/workflows/:id", func(c fiber.Ctx) error {
		if err := h.store.SaveWorkflow(c.Context(), c.Params("id"), h.canvas.Snapshot()); err != nil {
			return h.internal(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/workflows/:id", func(c fiber.Ctx) error {
		g, err := h.store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return h.internal(c, err)
		}
		if g == nil {
			return notFound(c)
		}
		return c.JSON(flow.Export(*g))
	})

	app.Post("/workflows/:id/load", func(c fiber.Ctx) error {
		g, err := h.store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return h.internal(c, err)
		}
		if g == nil {
			return notFound(c)
		}
		h.canvas.Replace(*g)
		return c.JSON(h.canvas.Snapshot())
	})

	app.Delete("/workflows/:id", func(c fiber.Ctx) error {
		if err := h.store.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
			return h.internal(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ── Simulation ────────────────────────────────────────────────────
	app.Get("/simulation/pipeline", func(c fiber.Ctx) error {
		return c.JSON(h.sim.Pipeline())
	})

	app.Post("/simulation", func(c fiber.Ctx) error {
		run, err := h.sim.Submit(c.Context())
		if errors.Is(err, simulate.ErrBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return h.internal(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(run)
	})

	app.Get("/simulation", func(c fiber.Ctx) error {
		resp := fiber.Map{"records": h.board.Records()}
		if run, ok := h.sim.Last(); ok {
			resp["run"] = run
		}
		return c.JSON(resp)
	})

	app.Post("/simulation/reset", func(c fiber.Ctx) error {
		if err := h.sim.Reset(); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// bind decodes the JSON body into out and validates its struct tags.
func (h *Handler) bind(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return errors.New("invalid body")
	}
	return h.validate.Struct(out)
}

func (h *Handler) internal(c fiber.Ctx, err error) error {
	h.logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func notFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": flow.ErrWorkflowNotFound.Error()})
}
