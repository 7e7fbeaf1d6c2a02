package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"

	apperrors "github.com/spec-kit/access-gateway/pkg/util"
)

// UpstreamHandler forwards requests to the web front-end unchanged.
type UpstreamHandler struct {
	baseURL string
}

// NewUpstreamHandler builds a handler for baseURL (scheme://host[:port]).
func NewUpstreamHandler(baseURL string) *UpstreamHandler {
	return &UpstreamHandler{baseURL: baseURL}
}

// Forward proxies the request, path and query included.
func (h *UpstreamHandler) Forward(c *fiber.Ctx) error {
	if err := proxy.Do(c, h.baseURL+c.OriginalURL()); err != nil {
		return apperrors.NewBadGateway(err)
	}
	c.Response().Header.Del(fiber.HeaderServer)
	return nil
}
