package main

import (
	"k8s.io/klog/v2"

	"github.com/raids-lab/buildtracker/cmd/buildtracker/helper"
)

// @title						Build Tracker API
// @version						1.0.0
// @description					This is the API server for Build Tracker, tracking system builds, their forecasts and deliveries.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description					访问 /api/login 并获取 TOKEN 后，填入 'Bearer ${TOKEN}' 以访问受保护的接口
func main() {
	// Initialize configuration
	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	// Load debug environment if needed
	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	// Setup server runner and logger
	serverRunner := helper.NewServerRunner(backendConfig)
	serverRunner.SetupLogger()

	// Initialize register config and dependencies
	registerConfig, err := configInit.InitializeRegisterConfig()
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	// Start periodic maintenance
	cronManager, err := serverRunner.StartCronJobs(registerConfig)
	if err != nil {
		klog.Fatalf("Failed to start cron jobs: %s", err)
	}

	// Start HTTP server, returns after shutdown
	serverRunner.StartServer(registerConfig)

	<-cronManager.Stop().Done()
	klog.Info("cron jobs stopped")
}
