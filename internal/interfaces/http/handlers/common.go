// Package handlers implements the HTTP endpoints of the prediction API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
	"github.com/turtacn/MolProp-Intelligence/pkg/types/common"
)

// writeDetail writes the {"detail": ...} body used for rejected requests.
func writeDetail(c *gin.Context, status int, code errors.ErrorCode, detail string) {
	if code != "" {
		c.Header(middleware.HeaderErrorCode, string(code))
	}
	c.JSON(status, common.ErrorResponse{Detail: detail, RequestID: middleware.GetRequestID(c)})
}

// writeAppError maps err to its status and message.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	detail := code.DefaultMessage()
	var ae *errors.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		detail = ae.Message
	}
	_ = c.Error(err)
	writeDetail(c, code.HTTPStatus(), code, detail)
}

//Personal.AI order the ending
