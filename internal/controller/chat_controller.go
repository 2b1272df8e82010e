package controller

import (
	"bufio"
	"encoding/json"
	"sync"

	"ai-lawyer-be/internal/dto"
	"ai-lawyer-be/internal/pkg/serverutils"
	"ai-lawyer-be/internal/service"
	"ai-lawyer-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/session", c.GetAllSessions)
	h.Get("/session/:id/history", c.GetChatHistory)
	h.Delete("/session", c.DeleteSession)
	h.Post("/query", c.Query)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetAllSessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *chatController) GetChatHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	idParam := ctx.Params("id")
	sessionId, err := uuid.Parse(idParam)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.service.GetChatHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.DeleteSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

// Query answers one message. With "stream": true the response is
// newline-delimited JSON: one line per progress event, terminated by
// exactly one done line carrying the same payload a non-streaming call
// returns, or one error line.
func (c *chatController) Query(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !req.Stream {
		res, err := c.service.Query(ctx.Context(), userId, &req, nil)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success query", res))
	}

	return c.streamQuery(ctx, userId, &req)
}

// streamLine is one ND-JSON line of a streamed query response.
type streamLine struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

func (c *chatController) streamQuery(ctx *fiber.Ctx, userId uuid.UUID, req *dto.QueryRequest) error {
	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")

	// The request context dies with the handler; the stream writer runs
	// after, so the query uses a detached context.
	queryCtx := ctx.UserContext()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		var mu sync.Mutex
		writeLine := func(line streamLine) {
			mu.Lock()
			defer mu.Unlock()
			data, err := json.Marshal(line)
			if err != nil {
				return
			}
			w.Write(data)
			w.WriteByte('\n')
			w.Flush()
		}

		// The pipelines emit their own terminal events; those are held
		// back here so the stream ends in exactly one done or error
		// line, with done carrying the final payload.
		emitter := func(event agent.Event) {
			if event.Type == agent.EventDone || event.Type == agent.EventError {
				return
			}
			writeLine(streamLine{Type: string(event.Type), Data: event.Data})
		}

		res, err := c.service.Query(queryCtx, userId, req, emitter)
		if err != nil {
			writeLine(streamLine{Type: string(agent.EventError), Data: map[string]string{"message": err.Error()}})
			return
		}
		writeLine(streamLine{Type: string(agent.EventDone), Data: res})
	}))

	return nil
}
