package pipeline

import "fmt"

// HealthCheckError reports a failed pre-flight probe. The run ends
// before any data movement when this is raised.
type HealthCheckError struct {
	Component string
}

func (e *HealthCheckError) Error() string {
	return fmt.Sprintf("%s health check failed", e.Component)
}
