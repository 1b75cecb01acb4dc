package middleware

import (
	"fmt"
	"runtime/debug"

	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into a JSON error response.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", rec),
			}
			logrus.Errorf("[REST] Panic recovered on %s %s: %v\n%s", ctx.Method(), ctx.Path(), rec, debug.Stack())

			if genericErr, ok := rec.(pkgError.GenericError); ok {
				res.Status = genericErr.StatusCode()
				res.Code = genericErr.ErrCode()
				res.Message = genericErr.Error()
			}
			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
