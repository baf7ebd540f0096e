// Package config loads project build descriptors.
//
// A project is a directory holding a Dockerfile and a project.yaml
// descriptor. Loading resolves both into a single [Project] value with
// fleet-wide defaults already applied, so no consumer ever needs to know
// which fields the descriptor left out.
package config
