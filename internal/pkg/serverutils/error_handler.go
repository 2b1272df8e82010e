package serverutils

import (
	"errors"
	"log"

	"ai-lawyer-be/pkg/llm"
	"ai-lawyer-be/pkg/retrieval"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into
// the uniform envelope. Provider outages map to 502 so clients can
// distinguish "model down" from "bad request".
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var providerErr *llm.ProviderError
		if errors.As(err, &providerErr) {
			log.Printf("[ERROR] Model provider failure: %v", providerErr)
			return ctx.Status(fiber.StatusBadGateway).
				JSON(ErrorResponse(fiber.StatusBadGateway, "Model provider unavailable"))
		}

		var retrievalErr *retrieval.Error
		if errors.As(err, &retrievalErr) {
			log.Printf("[ERROR] Retrieval failure: %v", retrievalErr)
			return ctx.Status(fiber.StatusBadGateway).
				JSON(ErrorResponse(fiber.StatusBadGateway, "Retrieval source unavailable"))
		}

		log.Printf("[ERROR] Unhandled error: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
