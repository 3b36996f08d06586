package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/wendylandcan/liqingai/controllers"
)

// SetupCaseRoutes registers the case workflow endpoints.
func SetupCaseRoutes(router *gin.RouterGroup) {
	cases := router.Group("/cases")
	{
		cases.POST("", controllers.CreateCase)
		cases.GET("", controllers.ListCases)
		cases.POST("/join", controllers.JoinCase)
		cases.GET("/:id", controllers.GetCase)
		cases.DELETE("/:id", controllers.DeleteCase)

		cases.POST("/:id/filing", controllers.SubmitFiling)
		cases.POST("/:id/evidence", controllers.AddEvidence)
		cases.DELETE("/:id/evidence/:evidenceId", controllers.RemoveEvidence)
		cases.PUT("/:id/evidence/:evidenceId/contest", controllers.ContestEvidence)
		cases.POST("/:id/evidence/close", controllers.CloseEvidence)

		cases.POST("/:id/defense", controllers.SubmitDefense)
		cases.POST("/:id/rebuttal", controllers.SubmitRebuttal)
		cases.POST("/:id/debate", controllers.AdvanceToDebate)
		cases.POST("/:id/points/:pointId/argument", controllers.SubmitArgument)

		cases.POST("/:id/adjudication", controllers.EnterAdjudication)
		cases.POST("/:id/verdict", controllers.Adjudicate)
		cases.POST("/:id/stepback", controllers.StepBack)
		cases.POST("/:id/default-judgment", controllers.DefaultJudgment)
		cases.POST("/:id/appeal", controllers.Appeal)
	}
}
