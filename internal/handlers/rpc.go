package handlers

import (
	"errors"
	"net/http"

	"booksearch/internal/dispatch"
	"booksearch/internal/validation"

	"github.com/gin-gonic/gin"
)

// RPCRequest documents the envelope accepted by /api/v1/rpc.
type RPCRequest struct {
	// One of registerUser, loginUser, getUser, getAllUsers, getBooks,
	// searchCatalog, saveBook, deleteBook.
	Operation string         `json:"operation" example:"saveBook"`
	Args      map[string]any `json:"args"`
}

// @Summary      Call an operation
// @Description  Runs one tagged operation. Token-protected operations read the Authorization header.
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Param        input  body      RPCRequest  true  "operation and args"
// @Success      200    {object}  map[string]interface{}  "operation, data"
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse
// @Failure      502    {object}  ErrorResponse
// @Failure      503    {object}  ErrorResponse
// @Router       /api/v1/rpc [post]
func (h *Handler) rpcCall(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var unknown *dispatch.UnknownOperationError
		if errors.As(err, &unknown) {
			h.respondError(c, "rpc_unknown_operation", unknown)
			return
		}
		if h.log != nil {
			h.log.Infow("rpc_bad_request_body", "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Code:    "invalid_input",
			Details: validation.ToDetails(err),
		})
		return
	}
	if req.Operation == dispatch.OpUnknown {
		h.respondError(c, "rpc_missing_operation", &dispatch.UnknownOperationError{})
		return
	}

	out, err := h.rpc.Dispatch(c.Request.Context(), req.Operation, c.GetHeader("Authorization"), req.Args)
	if err != nil {
		h.respondError(c, "rpc_failed", err, "operation", req.Operation.String())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operation": req.Operation.String(),
		"data":      out,
	})
}
