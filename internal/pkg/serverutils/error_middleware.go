package serverutils

import (
	"errors"

	"doc-qa-be/pkg/rag"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps service errors onto HTTP statuses. Handlers return raw
// errors; everything that reaches the client goes through here.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var (
		invalidArg    *rag.InvalidArgumentError
		notFound      *rag.NotFoundError
		utilityErr    *rag.UtilityError
		completionErr *rag.CompletionError
		fiberErr      *fiber.Error
		validationErr validator.ValidationErrors
	)

	switch {
	case errors.As(err, &invalidArg):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(invalidArg.Error()))

	case errors.As(err, &validationErr):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(validationErr.Error()))

	case errors.As(err, &notFound):
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(notFound.Error()))

	case errors.As(err, &utilityErr):
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(utilityErr.Error()))

	case errors.As(err, &completionErr):
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(completionErr.Error()))

	case errors.As(err, &fiberErr):
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error"))
}
