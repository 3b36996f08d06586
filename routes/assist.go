package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/wendylandcan/liqingai/controllers"
)

// SetupAssistRoutes registers the text-assist endpoints used while
// composing statements.
func SetupAssistRoutes(router *gin.RouterGroup) {
	assist := router.Group("/assist")
	{
		assist.POST("/transcribe", controllers.Transcribe)
		assist.POST("/polish", controllers.PolishText)
		assist.POST("/grammar", controllers.FixGrammar)
		assist.POST("/summarize", controllers.Summarize)
		assist.POST("/title", controllers.GenerateTitle)
	}
}
