package controller

import (
	"doc-qa-be/internal/dto"
	"doc-qa-be/internal/pkg/serverutils"
	"doc-qa-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	ListSessionMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	rateLimiter fiber.Handler
}

func NewChatController(chatService service.IChatService, rateLimiter fiber.Handler) IChatController {
	return &chatController{
		chatService: chatService,
		rateLimiter: rateLimiter,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED: Wajib login
	if c.rateLimiter != nil {
		h.Use(c.rateLimiter)
	}
	h.Post("query", c.Query)
	h.Get("sessions/:id/messages", c.ListSessionMessages)
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ChatQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.chatService.Query(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success query chat", res))
}

func (c *chatController) ListSessionMessages(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	// 2. Kirim userId ke Service
	res, err := c.chatService.ListSessionMessages(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list session messages", res))
}
