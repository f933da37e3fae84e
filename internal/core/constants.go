// Package core provides shared constants and configuration for the EcoTrace client.
package core

// API configuration
const (
	ProductionAPIURL  = "https://ecotrace-api.onrender.com/api"
	DevelopmentAPIURL = "http://192.168.0.88:3001/api"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Version is the current client version.
const Version = "0.3.0"
