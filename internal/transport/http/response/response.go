package response

import "github.com/gin-gonic/gin"

// ErrorBody is the error envelope every endpoint shares. Success bodies are
// route-specific because the UI depends on their exact field names.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail})
}
