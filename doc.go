// Package main provides the entry point for the GradQuest backend.
// It initializes and runs a web server using the Fiber framework that
// signs users in through external OAuth providers (GitHub, Google,
// Discord), reconciles provider identities into account records with
// gorm, and hands control back to native or web clients through a
// cookie-carried return destination.
package main
