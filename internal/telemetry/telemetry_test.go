package telemetry

import (
	"context"
	"os"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	os.Exit(m.Run())
}

func TestInitTelemetryDisabledInstallsNoExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

	err := InitTelemetry(true, "1.0.0")
	assert.NoError(t, err)
	assert.Nil(t, shutdownFn)

	assert.NoError(t, ShutdownTelemetry(context.Background()))
}

func TestInitTelemetryNoEndpointInstallsNoExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	err := InitTelemetry(false, "1.0.0")
	assert.NoError(t, err)
	assert.Nil(t, shutdownFn)
}
