package telemetry

import (
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func newResource(serviceName string) *resource.Resource {
	return resource.NewSchemaless(
		semconv.ServiceName(serviceName),
	)
}
