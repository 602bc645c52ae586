package middleware

import "github.com/gin-gonic/gin"

const (
	analysisIDKey       = "analysisId"
	artifactIDKey       = "artifactId"
	statusTransitionKey = "statusTransition"
)

// SetAnalysisID tags the request with the analysis it touches, for logging.
func SetAnalysisID(c *gin.Context, id string) {
	if id != "" {
		c.Set(analysisIDKey, id)
	}
}

// SetArtifactID tags the request with the artifact it touches, for logging.
func SetArtifactID(c *gin.Context, id string) {
	if id != "" {
		c.Set(artifactIDKey, id)
	}
}

// SetStatusTransition records a lifecycle transition such as "pending->processing".
func SetStatusTransition(c *gin.Context, transition string) {
	if transition != "" {
		c.Set(statusTransitionKey, transition)
	}
}
