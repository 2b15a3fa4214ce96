package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/company-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling initializes Pyroscope profiling.
// The application name comes from Kubernetes metadata when available, else SERVICE_NAME.
func InitProfiling(cfg *config.Config) error {
	serviceName, namespace := detectServiceInfo()
	if serviceName == unknownService && cfg.Profiling.ServiceName != "" {
		serviceName = cfg.Profiling.ServiceName
	}
	pyroscopeEndpoint := cfg.Profiling.Endpoint

	// Configure Pyroscope with auto-detected service information
	pcfg := pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   pyroscopeEndpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
			"env":       cfg.Service.Env,
			"version":   cfg.Service.Version,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
		Logger: pyroscope.StandardLogger,
	}

	// Start profiling
	var err error
	profiler, err = pyroscope.Start(pcfg)
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
