package a2a

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/gin-gonic/gin"
)

// Register mounts the A2A routes. The agent card is public; /a2a requires
// the bearer secret when one is configured.
func Register(r gin.IRoutes, c Chatter, baseURL, version, secret string) {
	card := BuildAgentCard(baseURL, version)

	handler := a2asrv.NewHandler(NewExecutor(c))
	jsonrpcHandler := a2asrv.NewJSONRPCHandler(handler)

	r.GET(a2asrv.WellKnownAgentCardPath, gin.WrapH(a2asrv.NewStaticAgentCardHandler(card)))
	r.POST("/a2a", requireSecret(secret), gin.WrapH(jsonrpcHandler))

	slog.Info("a2a protocol enabled",
		slog.String("card_url", baseURL+a2asrv.WellKnownAgentCardPath),
		slog.String("endpoint", baseURL+"/a2a"),
		slog.Bool("protected", secret != ""))
}

func requireSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1 {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
	}
}
