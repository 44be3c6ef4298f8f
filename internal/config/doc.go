// Package config provides configuration types and loading for polis.
//
// # Files
//
// Everything polis persists lives under one directory, ~/.polis by default
// or $POLIS_HOME when set:
//
//	state.json      workspace record
//	run-state.json  stage checkpoint of an interrupted provisioning run
//	polis.lock      advisory lock held by mutating commands
//	config.toml     optional user configuration
//	bundle/         configuration bundle transferred into the VM
//	agents/         agent manifests and generated overlays
//
// # config.toml
//
//	[vm]
//	instance = "polis"
//	image = "24.04"
//	cpus = 2
//	memory = "8G"
//	disk = "40G"
//	launch_timeout = "600s"
//
//	[timeouts]
//	admin = "30s"
//	shell = "15m"
//	probe = "10s"
//	health = "60s"
//	health_interval = "2s"
//
//	[compose]
//	service = "workspace"
//
// POLIS_HEALTH_TIMEOUT overrides timeouts.health and POLIS_IMAGE overrides
// vm.image.
package config
